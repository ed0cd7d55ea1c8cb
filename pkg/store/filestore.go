package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossygate/parley/pkg/world"
)

// FileStore keeps one pretty-printed JSON document per actor under
// <root>/actors/<id>.json. Writes go through a temp file and rename so a
// crash mid-write never corrupts an actor record.
type FileStore struct {
	dir string
}

func NewFileStore(root string) (*FileStore, error) {
	dir := filepath.Join(root, "actors")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create actor dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(actorID string) string {
	return filepath.Join(s.dir, sanitizeID(actorID)+".json")
}

func (s *FileStore) Load(ctx context.Context, actorID string) (*world.Actor, error) {
	data, err := os.ReadFile(s.path(actorID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, world.ErrActorNotFound
		}
		return nil, fmt.Errorf("read actor %s: %w", actorID, err)
	}
	var actor world.Actor
	if err := json.Unmarshal(data, &actor); err != nil {
		return nil, fmt.Errorf("decode actor %s: %w", actorID, err)
	}
	return &actor, nil
}

func (s *FileStore) Save(ctx context.Context, actor *world.Actor) error {
	data, err := json.MarshalIndent(actor, "", "  ")
	if err != nil {
		return fmt.Errorf("encode actor %s: %w", actor.ID, err)
	}
	path := s.path(actor.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write actor %s: %w", actor.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit actor %s: %w", actor.ID, err)
	}
	return nil
}

// ListIDs reads the id out of each document: file names are sanitized and
// cannot be mapped back to actor ids.
func (s *FileStore) ListIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var doc struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &doc); err != nil || doc.ID == "" {
			continue
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (s *FileStore) Delete(ctx context.Context, actorID string) error {
	err := os.Remove(s.path(actorID))
	if os.IsNotExist(err) {
		return world.ErrActorNotFound
	}
	return err
}

// sanitizeID keeps actor file names filesystem-safe. Actor ids are opaque,
// so any unsafe rune is mapped rather than rejected.
func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}
