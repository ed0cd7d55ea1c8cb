package orchestrator

import (
	"context"
	"time"

	"github.com/adhocore/gronx"

	"github.com/mossygate/parley/pkg/logger"
)

// HousekeepingOptions configures the periodic sweep.
type HousekeepingOptions struct {
	// PurgeSchedule is a cron expression; when due, expired memories are
	// purged across all actors. Empty disables purging.
	PurgeSchedule string
	// Tick is how often the sweep wakes up. Cron due-checks have minute
	// granularity, so ticks faster than one minute only tighten session
	// eviction.
	Tick time.Duration
}

// RunHousekeeping evicts stale sessions on every tick and purges expired
// memories when the cron schedule is due. It is a cooperative sweep, not a
// cancellation of in-flight work; it returns when ctx is done.
func (o *Orchestrator) RunHousekeeping(ctx context.Context, opts HousekeepingOptions) {
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Minute
	}
	gron := gronx.New()
	var lastPurgeMinute time.Time

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := o.sessions.EvictStale(o.opts.SessionTimeout, now); evicted > 0 {
				logger.DebugCF("orchestrator", "Evicted stale sessions", map[string]interface{}{
					"evicted": evicted,
				})
			}

			if opts.PurgeSchedule == "" {
				continue
			}
			minute := now.Truncate(time.Minute)
			if minute.Equal(lastPurgeMinute) {
				continue
			}
			due, err := gron.IsDue(opts.PurgeSchedule, minute)
			if err != nil {
				logger.WarnCF("orchestrator", "Bad purge schedule", map[string]interface{}{
					"schedule": opts.PurgeSchedule,
					"error":    err.Error(),
				})
				continue
			}
			if due {
				lastPurgeMinute = minute
				o.opts.Memory.PurgeAllExpired(ctx, o.opts.RetentionDays)
			}
		}
	}
}
