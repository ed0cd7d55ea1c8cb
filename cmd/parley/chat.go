package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/mossygate/parley/pkg/generator"
	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/orchestrator"
	"github.com/mossygate/parley/pkg/world"
)

func newChatCommand() *cobra.Command {
	var (
		actorID string
		asName  string
		message string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to an actor locally (no Discord)",
		Long: "Run an interactive local conversation with one actor, or send a " +
			"one-shot message. Reputation and memory persist between sessions.",
		Example: strings.Join([]string{
			"  parley chat --actor npc:blacksmith",
			"  parley chat --actor npc:innkeeper --as Hrothgar",
			"  parley chat --actor npc:blacksmith --message \"Good morning!\"",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(actorID) == "" {
				return fmt.Errorf("--actor is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if debug {
				cfg.Log.Level = "debug"
			}
			logger.Init(cfg.Log.Level)
			defer logger.Sync()

			core, err := openRuntime(cfg)
			if err != nil {
				return err
			}

			gen, err := generator.New(cfg.Generator)
			if err != nil {
				fmt.Printf("Generator unavailable (%v), using scripted lines.\n\n", err)
				gen = generator.ScriptedGenerator{}
			}

			orch := orchestrator.New(orchestrator.Options{
				Registry:       core.registry,
				Memory:         core.memory,
				Reputation:     core.reputation,
				Limiter:        core.limiter,
				Executor:       core.executor,
				Generator:      gen,
				Clock:          core.clock,
				Validators:     defaultValidators(),
				RecallLimit:    cfg.Engine.MemoryRecallLimit,
				SessionTimeout: cfg.SessionTimeout(),
				RetentionDays:  cfg.Engine.RetentionDays,
			})

			counterpartyID := "cli:" + asName
			if message != "" {
				return chatOnce(orch, actorID, counterpartyID, asName, message)
			}
			return chatInteractive(orch, core, actorID, counterpartyID, asName)
		},
	}

	cmd.Flags().StringVarP(&actorID, "actor", "a", "", "Actor to talk to (e.g. npc:blacksmith)")
	cmd.Flags().StringVar(&asName, "as", "Traveler", "Your name as the actor hears it")
	cmd.Flags().StringVarP(&message, "message", "m", "", "One-shot message instead of interactive mode")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func chatOnce(orch *orchestrator.Orchestrator, actorID, counterpartyID, counterpartyName, message string) error {
	resp, err := orch.Handle(context.Background(), orchestrator.Request{
		ActorID:          actorID,
		CounterpartyID:   counterpartyID,
		CounterpartyName: counterpartyName,
		Input:            message,
		Channel:          world.ChannelText,
	})
	if err != nil {
		return err
	}
	printTurn(actorID, resp)
	return nil
}

func chatInteractive(orch *orchestrator.Orchestrator, core *runtimeCore, actorID, counterpartyID, counterpartyName string) error {
	fmt.Printf("%s Talking to %s as %s (Ctrl+C or 'exit' to leave)\n\n", appName, actorID, counterpartyName)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".parley_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()
	defer orch.Disconnect(counterpartyID)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nFarewell.")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Farewell.")
			return nil
		}
		if input == "/score" {
			score := core.reputation.Score(context.Background(), actorID, counterpartyID)
			fmt.Printf("  score %d (%s)\n\n", score, dispositionOf(score))
			continue
		}

		resp, err := orch.Handle(context.Background(), orchestrator.Request{
			ActorID:          actorID,
			CounterpartyID:   counterpartyID,
			CounterpartyName: counterpartyName,
			Input:            input,
			Channel:          world.ChannelText,
		})
		if err != nil {
			switch {
			case errors.Is(err, orchestrator.ErrRateLimited):
				fmt.Println("  (you are speaking too quickly)")
			case errors.Is(err, orchestrator.ErrBusy):
				fmt.Println("  (they are still answering)")
			default:
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}
		printTurn(actorID, resp)
	}
}

func printTurn(actorID string, resp orchestrator.Response) {
	fmt.Printf("\n%s: %s\n", actorID, resp.Text)
	if resp.UsedFallback {
		fmt.Println("  (the voices are faint; this was a stock reply)")
	}
	if resp.Signal != nil {
		switch resp.Signal.Kind {
		case orchestrator.SignalAttack:
			fmt.Println("  ! they turn on you")
		case orchestrator.SignalSpawnGuardian:
			fmt.Println("  ! a guardian answers their call")
		}
	}
	fmt.Println()
}
