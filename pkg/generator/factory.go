package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/mossygate/parley/pkg/config"
)

// New builds the configured generator backend.
func New(cfg config.GeneratorConfig) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "scripted":
		return ScriptedGenerator{}, nil
	case "openai", "openrouter", "":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("generator.api_key is required for provider %q (or use provider \"scripted\")", provider)
		}
		base := strings.TrimSpace(cfg.APIBase)
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		return NewHTTPGenerator(cfg.APIKey, base, cfg.Model, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider %q: supported providers are openai, openrouter, scripted", provider)
	}
}
