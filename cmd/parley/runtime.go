package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mossygate/parley/pkg/config"
	"github.com/mossygate/parley/pkg/memory"
	"github.com/mossygate/parley/pkg/orchestrator"
	"github.com/mossygate/parley/pkg/ratelimit"
	"github.com/mossygate/parley/pkg/reputation"
	"github.com/mossygate/parley/pkg/retry"
	"github.com/mossygate/parley/pkg/store"
	"github.com/mossygate/parley/pkg/world"
)

// configPath is set by the root --config flag; empty means the default
// location under ~/.parley.
var configPath string

func resolveConfigPath() string {
	if strings.TrimSpace(configPath) != "" {
		return config.ExpandHome(configPath)
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	return config.Load(resolveConfigPath())
}

const maxInputRunes = 2000

// defaultValidators rejects turns before any state changes: blank input
// and oversized input are invalid, not rate limited.
func defaultValidators() []orchestrator.Validator {
	return []orchestrator.Validator{
		func(req orchestrator.Request) error {
			if strings.TrimSpace(req.Input) == "" {
				return fmt.Errorf("empty input: %w", orchestrator.ErrInvalid)
			}
			if utf8.RuneCountInString(req.Input) > maxInputRunes {
				return fmt.Errorf("input exceeds %d characters: %w", maxInputRunes, orchestrator.ErrInvalid)
			}
			return nil
		},
	}
}

// runtimeCore is the persistence-backed engine stack shared by the chat,
// gateway, and admin commands.
type runtimeCore struct {
	cfg        *config.Config
	registry   *world.Registry
	clock      world.Clock
	memory     *memory.Store
	reputation *reputation.Engine
	limiter    *ratelimit.Limiter
	executor   *retry.Executor
}

func openRuntime(cfg *config.Config) (*runtimeCore, error) {
	actorStore, err := store.Open(cfg.Store, cfg.StorePath())
	if err != nil {
		return nil, fmt.Errorf("open actor store: %w", err)
	}

	registry := world.NewRegistry(actorStore)
	clock := world.NewSimClock(cfg.WorldEpochTime(), cfg.DayLength())

	return &runtimeCore{
		cfg:        cfg,
		registry:   registry,
		clock:      clock,
		memory:     memory.NewStore(registry, clock),
		reputation: reputation.NewEngine(registry, reputation.KeywordClassifier{}),
		limiter:    ratelimit.New(cfg.Engine.RateMaxPerWindow, cfg.RateWindow()),
		executor: retry.NewExecutor(retry.Policy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: time.Duration(cfg.Retry.InitialDelayMS) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Retry.MaxDelayMS) * time.Millisecond,
			Multiplier:   cfg.Retry.Multiplier,
		}),
	}, nil
}
