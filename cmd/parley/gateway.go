package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/channels"
	"github.com/mossygate/parley/pkg/generator"
	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/notify"
	"github.com/mossygate/parley/pkg/orchestrator"
)

func newGatewayCommand() *cobra.Command {
	var (
		debug        bool
		consoleActor string
	)

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the conversation gateway",
		Long: "Start the channel adapters and the conversation pipeline: " +
			"inbound messages are rate limited, validated, answered through the " +
			"retrying generator, and post-processed into reputation and memory.",
		Example: strings.Join([]string{
			"  parley gateway",
			"  parley gateway --console npc:blacksmith",
		}, "\n"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if debug {
				cfg.Log.Level = "debug"
			}
			logger.Init(cfg.Log.Level)
			defer logger.Sync()

			discordEnabled := strings.TrimSpace(cfg.Channels.Discord.Token) != ""
			if !discordEnabled && consoleActor == "" {
				return fmt.Errorf("no channels to run: set channels.discord.token or pass --console <actor>")
			}
			if discordEnabled && len(cfg.Channels.Discord.Actors) == 0 {
				return fmt.Errorf("channels.discord.actors must map at least one Discord channel id to an actor")
			}

			core, err := openRuntime(cfg)
			if err != nil {
				return err
			}

			gen, err := generator.New(cfg.Generator)
			if err != nil {
				return fmt.Errorf("create generator: %w", err)
			}

			msgBus := bus.NewMessageBus()

			// The notifier routes through the runner's last-seen transport
			// targets; the runner needs the orchestrator, so wire through a
			// late-bound closure.
			var runner *orchestrator.Runner
			notifier := notify.NewBusNotifier(msgBus, func(counterpartyID string) (string, string) {
				if runner == nil {
					return "", counterpartyID
				}
				return runner.RouteFor(counterpartyID)
			}, cfg.NotifyCooldown())

			orch := orchestrator.New(orchestrator.Options{
				Registry:       core.registry,
				Memory:         core.memory,
				Reputation:     core.reputation,
				Limiter:        core.limiter,
				Executor:       core.executor,
				Generator:      gen,
				Notifier:       notifier,
				Clock:          core.clock,
				Validators:     defaultValidators(),
				RecallLimit:    cfg.Engine.MemoryRecallLimit,
				SessionTimeout: cfg.SessionTimeout(),
				RetentionDays:  cfg.Engine.RetentionDays,
			})
			runner = orchestrator.NewRunner(orch, msgBus)

			manager := channels.NewManager(msgBus)
			if discordEnabled {
				discord, err := channels.NewDiscordChannel(cfg.Channels.Discord, msgBus)
				if err != nil {
					return fmt.Errorf("create discord channel: %w", err)
				}
				manager.Register(discord)
			}
			if consoleActor != "" {
				manager.Register(channels.NewConsoleChannel(msgBus, consoleActor, "Traveler"))
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := manager.StartAll(ctx); err != nil {
				return err
			}
			go runner.Run(ctx)
			go orch.RunHousekeeping(ctx, orchestrator.HousekeepingOptions{
				PurgeSchedule: cfg.Engine.PurgeSchedule,
			})

			fmt.Printf("✓ Gateway started, channels: %s\n", strings.Join(manager.EnabledChannels(), ", "))
			fmt.Println("Press Ctrl+C to stop")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan

			fmt.Println("\nShutting down...")
			cancel()
			if err := manager.StopAll(context.Background()); err != nil {
				logger.WarnCF("gateway", "Error stopping channels", map[string]interface{}{
					"error": err.Error(),
				})
			}
			msgBus.Close()
			fmt.Println("✓ Gateway stopped")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVar(&consoleActor, "console", "", "Also serve a local console channel for the given actor")
	return cmd
}
