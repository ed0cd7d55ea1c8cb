package reputation

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mossygate/parley/pkg/world"
)

// Engine aggregates reputation events per (actor, counterparty) pair,
// classifies scores into thresholds, and gates the one-shot behavior
// triggers. All writes go through the registry, which serializes access to
// a single actor and absorbs persistence failures.
type Engine struct {
	registry   *world.Registry
	classifier SentimentClassifier
	now        func() time.Time
}

func NewEngine(registry *world.Registry, classifier SentimentClassifier) *Engine {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Engine{
		registry:   registry,
		classifier: classifier,
		now:        time.Now,
	}
}

// AddEvent appends a reputation event and re-clamps the score. A zero delta
// means "use the type's canonical value". A missing actor is created with
// neutral defaults; this never fails back into the conversation path.
func (e *Engine) AddEvent(ctx context.Context, actorID, counterpartyID string, t world.EventType, delta int, description string) world.ReputationRecord {
	if delta == 0 {
		delta = CanonicalDelta(t)
	}
	var snapshot world.ReputationRecord
	_ = e.registry.Mutate(ctx, actorID, func(a *world.Actor) error {
		rec := a.Reputation(counterpartyID)
		now := e.now()
		rec.Events = append(rec.Events, world.ReputationEvent{
			ID:          ulid.Make().String(),
			Type:        t,
			ScoreDelta:  delta,
			Description: description,
			Timestamp:   now,
		})
		rec.Score = clampScore(rec.Score + delta)
		rec.LastUpdate = now
		snapshot = *rec
		return nil
	})
	return snapshot
}

// Score returns the current score for the pair, zero when the pair has
// never interacted.
func (e *Engine) Score(ctx context.Context, actorID, counterpartyID string) int {
	var score int
	e.registry.View(ctx, actorID, func(a *world.Actor) {
		if rec, ok := a.Reputations[counterpartyID]; ok {
			score = rec.Score
		}
	})
	return score
}

// Record returns a snapshot of the pair's record; ok is false when the pair
// has never interacted.
func (e *Engine) Record(ctx context.Context, actorID, counterpartyID string) (world.ReputationRecord, bool) {
	var snapshot world.ReputationRecord
	var ok bool
	e.registry.View(ctx, actorID, func(a *world.Actor) {
		if rec, found := a.Reputations[counterpartyID]; found {
			snapshot = *rec
			ok = true
		}
	})
	return snapshot, ok
}

// Classify delegates to the configured sentiment classifier.
func (e *Engine) Classify(text string) world.EventType {
	return e.classifier.Classify(text)
}

// ShouldFireMinor reports whether the minor behavior trigger is due: the
// pair sits exactly in the Unfriendly band and the latch is clear.
func ShouldFireMinor(rec world.ReputationRecord) bool {
	return ThresholdFor(rec.Score) == Unfriendly && !rec.MinorFired
}

// ShouldFireMajor reports whether the major behavior trigger is due: the
// pair is Hostile and the latch is clear.
func ShouldFireMajor(rec world.ReputationRecord) bool {
	return ThresholdFor(rec.Score) == Hostile && !rec.MajorFired
}

// MarkMinorFired latches the minor trigger so it cannot re-fire until an
// administrative reset.
func (e *Engine) MarkMinorFired(ctx context.Context, actorID, counterpartyID string) {
	_ = e.registry.Mutate(ctx, actorID, func(a *world.Actor) error {
		rec := a.Reputation(counterpartyID)
		rec.MinorFired = true
		rec.LastUpdate = e.now()
		return nil
	})
}

// MarkMajorFired latches the major trigger.
func (e *Engine) MarkMajorFired(ctx context.Context, actorID, counterpartyID string) {
	_ = e.registry.Mutate(ctx, actorID, func(a *world.Actor) error {
		rec := a.Reputation(counterpartyID)
		rec.MajorFired = true
		rec.LastUpdate = e.now()
		return nil
	})
}

// ResetFlags clears both latches without touching the score or event log.
func (e *Engine) ResetFlags(ctx context.Context, actorID, counterpartyID string) {
	_ = e.registry.Mutate(ctx, actorID, func(a *world.Actor) error {
		rec := a.Reputation(counterpartyID)
		rec.MinorFired = false
		rec.MajorFired = false
		rec.LastUpdate = e.now()
		return nil
	})
}
