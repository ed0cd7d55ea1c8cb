package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mossygate/parley/pkg/reputation"
	"github.com/mossygate/parley/pkg/world"
)

func dispositionOf(score int) string {
	return string(reputation.ThresholdFor(score))
}

// withRuntime loads config and opens the engine stack for admin commands.
func withRuntime(fn func(*runtimeCore) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	return fn(core)
}

func newActorsCommand() *cobra.Command {
	actorsRoot := &cobra.Command{
		Use:   "actors",
		Short: "Inspect and manage known actors",
	}

	actorsRoot.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List known actors",
		Example: "  parley actors list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				ctx := context.Background()
				ids := core.registry.ActorIDs(ctx)
				if len(ids) == 0 {
					fmt.Println("No actors yet.")
					return nil
				}
				fmt.Printf("Actors (%d):\n", len(ids))
				for _, id := range ids {
					core.registry.View(ctx, id, func(a *world.Actor) {
						fmt.Printf("  %s  %s (%s, %s)  counterparties: %d  memories: %d\n",
							a.ID, a.EffectiveName(), a.Gender, a.Personality,
							len(a.Reputations), len(a.Memories))
					})
				}
				return nil
			})
		},
	})

	actorsRoot.AddCommand(&cobra.Command{
		Use:     "show <actor_id>",
		Short:   "Show one actor's profile and standing",
		Args:    cobra.ExactArgs(1),
		Example: "  parley actors show npc:blacksmith",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				ctx := context.Background()
				found := core.registry.View(ctx, args[0], func(a *world.Actor) {
					fmt.Printf("Actor: %s\n", a.ID)
					fmt.Printf("  Name: %s", a.EffectiveName())
					if a.CustomName != "" && a.CustomName != a.OriginalName {
						fmt.Printf(" (originally %s)", a.OriginalName)
					}
					fmt.Println()
					fmt.Printf("  Gender: %s\n", a.Gender)
					fmt.Printf("  Personality: %s\n", a.Personality)
					fmt.Printf("  Memories: %d\n", len(a.Memories))

					if len(a.Reputations) == 0 {
						fmt.Println("  No counterparties yet.")
						return
					}
					fmt.Printf("  Counterparties (%d):\n", len(a.Reputations))
					cps := make([]string, 0, len(a.Reputations))
					for cp := range a.Reputations {
						cps = append(cps, cp)
					}
					sort.Strings(cps)
					for _, cp := range cps {
						rec := a.Reputations[cp]
						flags := ""
						if rec.MinorFired {
							flags += " minor-fired"
						}
						if rec.MajorFired {
							flags += " major-fired"
						}
						fmt.Printf("    %s  score %d (%s)  events %d%s\n",
							cp, rec.Score, dispositionOf(rec.Score), len(rec.Events), flags)
					}
				})
				if !found {
					return fmt.Errorf("actor %s not found", args[0])
				}
				return nil
			})
		},
	})

	actorsRoot.AddCommand(&cobra.Command{
		Use:     "rename <actor_id> <name>",
		Short:   "Give an actor a custom name",
		Long:    "Set a custom display name. Gender is re-derived from the new name.",
		Args:    cobra.ExactArgs(2),
		Example: "  parley actors rename npc:blacksmith Sigrid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				if err := core.registry.Rename(context.Background(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Printf("✓ %s is now called %s\n", args[0], args[1])
				return nil
			})
		},
	})

	return actorsRoot
}

func newReputationCommand() *cobra.Command {
	repRoot := &cobra.Command{
		Use:   "reputation",
		Short: "Inspect and manage reputation standing",
	}

	repRoot.AddCommand(&cobra.Command{
		Use:     "show <actor_id> <counterparty_id>",
		Short:   "Show the pair's score, threshold, and event log",
		Args:    cobra.ExactArgs(2),
		Example: "  parley reputation show npc:blacksmith cli:Traveler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				rec, ok := core.reputation.Record(context.Background(), args[0], args[1])
				if !ok {
					fmt.Printf("%s has no standing with %s yet (neutral, score 0).\n", args[0], args[1])
					return nil
				}
				fmt.Printf("Score: %d (%s)\n", rec.Score, dispositionOf(rec.Score))
				fmt.Printf("Minor trigger fired: %v\n", rec.MinorFired)
				fmt.Printf("Major trigger fired: %v\n", rec.MajorFired)
				if len(rec.Events) == 0 {
					return nil
				}
				fmt.Printf("Events (%d):\n", len(rec.Events))
				for _, ev := range rec.Events {
					desc := ev.Description
					if desc != "" {
						desc = "  " + desc
					}
					fmt.Printf("  %s  %-12s %+d%s\n",
						ev.Timestamp.Format("2006-01-02 15:04"), ev.Type, ev.ScoreDelta, desc)
				}
				return nil
			})
		},
	})

	repRoot.AddCommand(&cobra.Command{
		Use:     "reset-flags <actor_id> <counterparty_id>",
		Short:   "Re-arm the pair's one-shot behavior triggers",
		Args:    cobra.ExactArgs(2),
		Example: "  parley reputation reset-flags npc:blacksmith cli:Traveler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				core.reputation.ResetFlags(context.Background(), args[0], args[1])
				fmt.Printf("✓ Behavior triggers re-armed for %s / %s\n", args[0], args[1])
				return nil
			})
		},
	})

	return repRoot
}

func newMemoryCommand() *cobra.Command {
	memRoot := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and manage interaction memories",
	}

	memRoot.AddCommand(&cobra.Command{
		Use:     "stats <actor_id>",
		Short:   "Show memory statistics for an actor",
		Args:    cobra.ExactArgs(1),
		Example: "  parley memory stats npc:blacksmith",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				stats, ok := core.memory.Statistics(context.Background(), args[0], core.cfg.Engine.RetentionDays)
				if !ok {
					return fmt.Errorf("actor %s not found", args[0])
				}
				fmt.Printf("Memory stats for %s (world day %d, retention %d days):\n",
					args[0], core.clock.CurrentDay(), core.cfg.Engine.RetentionDays)
				fmt.Printf("  Total: %d  Active: %d  Expired: %d\n", stats.Total, stats.Active, stats.Expired)
				fmt.Printf("  Counterparties: %d\n", stats.DistinctCounterparties)
				if stats.Total > 0 {
					fmt.Printf("  Day range: %d..%d\n", stats.OldestDay, stats.NewestDay)
				}
				if len(stats.ByChannel) > 0 {
					parts := make([]string, 0, len(stats.ByChannel))
					for ch, n := range stats.ByChannel {
						parts = append(parts, fmt.Sprintf("%s=%d", ch, n))
					}
					sort.Strings(parts)
					fmt.Printf("  By channel: %s\n", strings.Join(parts, " "))
				}
				return nil
			})
		},
	})

	memRoot.AddCommand(&cobra.Command{
		Use:     "purge [actor_id]",
		Short:   "Purge expired memories now, for one actor or all",
		Args:    cobra.MaximumNArgs(1),
		Example: "  parley memory purge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(func(core *runtimeCore) error {
				ctx := context.Background()
				retention := core.cfg.Engine.RetentionDays
				var removed int
				if len(args) == 1 {
					removed = core.memory.PurgeExpired(ctx, args[0], retention, core.clock.CurrentDay())
				} else {
					removed = core.memory.PurgeAllExpired(ctx, retention)
				}
				fmt.Printf("✓ Purged %d expired memories\n", removed)
				return nil
			})
		},
	})

	return memRoot
}
