package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mossygate/parley/pkg/config"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "parley",
		Short: "NPC conversation gateway with reputation, memory, and resilient generation",
		Long: strings.TrimSpace(`parley runs AI-backed NPC conversations for a game world.

Each actor keeps per-counterparty reputation scores and interaction
memories; replies are generated through a retrying LLM client and
degrade to scripted lines when the upstream is down.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.parley/config.json)")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newGatewayCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newActorsCommand())
	root.AddCommand(newReputationCommand())
	root.AddCommand(newMemoryCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  parley version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}

func newOnboardCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.parley config and data directory",
		Long:    "Create the default configuration and data directory for a new parley installation.",
		Example: "  parley onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if err := config.Save(path, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			if err := os.MkdirAll(cfg.StorePath(), 0755); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}

			fmt.Printf("%s is ready!\n", appName)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Add your API key to", path)
			fmt.Println("  2. (Gateway mode) Add your Discord bot token to channels.discord.token")
			fmt.Println("     and map Discord channel ids to actors in channels.discord.actors")
			fmt.Println("  3. Talk to an actor locally: parley chat --actor npc:blacksmith")
			fmt.Println("  4. Run the gateway: parley gateway")
			fmt.Println("  5. Check readiness: parley status")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration and runtime readiness",
		Example: "  parley status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := resolveConfigPath()

			fmt.Printf("%s Status\n", appName)
			fmt.Printf("Version: %s\n", formatVersion())
			fmt.Println()

			if _, err := os.Stat(path); err == nil {
				fmt.Println("Config:", path, "✓")
			} else {
				fmt.Println("Config:", path, "✗ (run 'parley onboard')")
			}
			if _, err := os.Stat(cfg.StorePath()); err == nil {
				fmt.Println("Data dir:", cfg.StorePath(), "✓")
			} else {
				fmt.Println("Data dir:", cfg.StorePath(), "not initialized")
			}

			status := func(enabled bool) string {
				if enabled {
					return "✓"
				}
				return "not set"
			}
			apiReady := strings.TrimSpace(cfg.Generator.APIKey) != "" || cfg.Generator.Provider == "scripted"
			discordReady := strings.TrimSpace(cfg.Channels.Discord.Token) != ""

			fmt.Printf("Store backend: %s\n", cfg.Store.Backend)
			fmt.Printf("Generator: %s (%s)\n", cfg.Generator.Provider, cfg.Generator.Model)
			fmt.Println("API key:", status(apiReady))
			fmt.Println("Discord token:", status(discordReady))
			fmt.Printf("Discord actors mapped: %d\n", len(cfg.Channels.Discord.Actors))
			fmt.Println("Chat ready:", status(apiReady))
			fmt.Println("Gateway ready:", status(apiReady && discordReady))
			return nil
		},
	}
}
