package memory

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/world"
)

// Store is the interaction memory service: append-only per actor, queried
// most-recent-first for prompt context, expired on world-day distance.
type Store struct {
	registry *world.Registry
	clock    world.Clock
	now      func() time.Time
}

func NewStore(registry *world.Registry, clock world.Clock) *Store {
	return &Store{
		registry: registry,
		clock:    clock,
		now:      time.Now,
	}
}

// Append adds a record to the actor's memory log. Records are never
// deduplicated; insertion order is chronological order.
func (s *Store) Append(ctx context.Context, actorID string, rec world.MemoryRecord) {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	_ = s.registry.Mutate(ctx, actorID, func(a *world.Actor) error {
		a.Memories = append(a.Memories, rec)
		return nil
	})
}

// RecentFor returns up to limit records for the pair, most recent first.
func (s *Store) RecentFor(ctx context.Context, actorID, counterpartyID string, limit int) []world.MemoryRecord {
	if limit <= 0 {
		return nil
	}
	var out []world.MemoryRecord
	s.registry.View(ctx, actorID, func(a *world.Actor) {
		for i := len(a.Memories) - 1; i >= 0 && len(out) < limit; i-- {
			if a.Memories[i].CounterpartyID == counterpartyID {
				out = append(out, a.Memories[i])
			}
		}
	})
	return out
}

// expired reports whether a record is past retention as of currentDay.
func expired(rec world.MemoryRecord, retentionDays int, currentDay int64) bool {
	return currentDay-rec.WorldDay > int64(retentionDays)
}

// PurgeExpired removes the actor's records older than retentionDays world
// days as of currentDay. Idempotent; returns the number removed.
func (s *Store) PurgeExpired(ctx context.Context, actorID string, retentionDays int, currentDay int64) int {
	removed := 0
	_ = s.registry.Mutate(ctx, actorID, func(a *world.Actor) error {
		kept := a.Memories[:0]
		for _, rec := range a.Memories {
			if expired(rec, retentionDays, currentDay) {
				removed++
				continue
			}
			kept = append(kept, rec)
		}
		a.Memories = kept
		return nil
	})
	return removed
}

// PurgeAllExpired sweeps every known actor. Meant for a periodic schedule
// (once per world day), not the per-message path.
func (s *Store) PurgeAllExpired(ctx context.Context, retentionDays int) int {
	currentDay := s.clock.CurrentDay()
	total := 0
	for _, actorID := range s.registry.ActorIDs(ctx) {
		total += s.PurgeExpired(ctx, actorID, retentionDays, currentDay)
	}
	if total > 0 {
		logger.InfoCF("memory", "Purged expired memories", map[string]interface{}{
			"removed":        total,
			"retention_days": retentionDays,
			"world_day":      currentDay,
		})
	}
	return total
}

// Stats is a read-only aggregate over one actor's memory log.
type Stats struct {
	Total                  int
	Active                 int
	Expired                int
	DistinctCounterparties int
	OldestDay              int64
	NewestDay              int64
	ByChannel              map[world.Channel]int
}

// Statistics reports aggregates for the actor; ok is false when the actor
// is unknown.
func (s *Store) Statistics(ctx context.Context, actorID string, retentionDays int) (Stats, bool) {
	currentDay := s.clock.CurrentDay()
	var stats Stats
	ok := s.registry.View(ctx, actorID, func(a *world.Actor) {
		stats.ByChannel = make(map[world.Channel]int)
		counterparties := make(map[string]bool)
		for i, rec := range a.Memories {
			stats.Total++
			if expired(rec, retentionDays, currentDay) {
				stats.Expired++
			} else {
				stats.Active++
			}
			counterparties[rec.CounterpartyID] = true
			stats.ByChannel[rec.Channel]++
			if i == 0 || rec.WorldDay < stats.OldestDay {
				stats.OldestDay = rec.WorldDay
			}
			if rec.WorldDay > stats.NewestDay {
				stats.NewestDay = rec.WorldDay
			}
		}
		stats.DistinctCounterparties = len(counterparties)
	})
	return stats, ok
}
