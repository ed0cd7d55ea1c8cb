package store

import (
	"fmt"
	"path/filepath"

	"github.com/mossygate/parley/pkg/config"
	"github.com/mossygate/parley/pkg/world"
)

// Open builds the configured persistence backend.
func Open(cfg config.StoreConfig, root string) (world.ActorStore, error) {
	switch cfg.Backend {
	case "file", "":
		return NewFileStore(root)
	case "sqlite":
		return NewSQLiteStore(filepath.Join(root, "actors.db"))
	default:
		return nil, fmt.Errorf("unsupported store backend %q: supported backends are file, sqlite", cfg.Backend)
	}
}
