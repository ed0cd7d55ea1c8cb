package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mossygate/parley/pkg/generator"
	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/memory"
	"github.com/mossygate/parley/pkg/notify"
	"github.com/mossygate/parley/pkg/ratelimit"
	"github.com/mossygate/parley/pkg/reputation"
	"github.com/mossygate/parley/pkg/retry"
	"github.com/mossygate/parley/pkg/world"
)

// Options wires the orchestrator's collaborators and knobs.
type Options struct {
	Registry    *world.Registry
	Memory      *memory.Store
	Reputation  *reputation.Engine
	Limiter     *ratelimit.Limiter
	Executor    *retry.Executor
	Generator   generator.Generator
	Notifier    notify.Notifier
	Clock       world.Clock
	Validators  []Validator
	RecallLimit int

	SessionTimeout time.Duration
	RetentionDays  int
}

// Orchestrator is the control plane for conversation turns. Each handled
// message runs the full pipeline: admission, validation, session
// bookkeeping, context assembly, resilient generation, and post-processing
// of memory, reputation, and behavior triggers.
type Orchestrator struct {
	opts Options
	now  func() time.Time

	sessions *sessionTable

	pairMu   sync.Mutex
	inflight map[string]bool
}

func New(opts Options) *Orchestrator {
	if opts.Notifier == nil {
		opts.Notifier = notify.NopNotifier{}
	}
	if opts.RecallLimit <= 0 {
		opts.RecallLimit = 8
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = 5 * time.Minute
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 30
	}
	return &Orchestrator{
		opts:     opts,
		now:      time.Now,
		sessions: newSessionTable(),
		inflight: make(map[string]bool),
	}
}

func pairKey(actorID, counterpartyID string) string {
	return actorID + "|" + counterpartyID
}

// acquirePair claims the pair's single in-flight slot. A second message
// arriving while one is being processed is rejected as busy rather than
// queued, which keeps the pair's event log in admission order by
// construction.
func (o *Orchestrator) acquirePair(key string) (func(), bool) {
	o.pairMu.Lock()
	defer o.pairMu.Unlock()
	if o.inflight[key] {
		return nil, false
	}
	o.inflight[key] = true
	release := func() {
		o.pairMu.Lock()
		delete(o.inflight, key)
		o.pairMu.Unlock()
	}
	return release, true
}

// Handle runs one conversation turn. Validation and rate-limit failures
// return errors with no side effects; generation failures are absorbed
// into a fallback response with no memory write for the failed turn.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (Response, error) {
	turnID := uuid.NewString()

	// 1. Admission.
	if !o.opts.Limiter.TryAdmit(req.CounterpartyID) {
		o.opts.Notifier.Notify(req.CounterpartyID, notify.CategoryRateLimited,
			"You are speaking too quickly; give them a moment.")
		return Response{}, fmt.Errorf("counterparty %s: %w", req.CounterpartyID, ErrRateLimited)
	}

	// 2. Caller-supplied range/validity checks, before any state changes.
	for _, validate := range o.opts.Validators {
		if err := validate(req); err != nil {
			return Response{}, err
		}
	}

	// 3. At most one in-flight generation per pair.
	key := pairKey(req.ActorID, req.CounterpartyID)
	release, ok := o.acquirePair(key)
	if !ok {
		return Response{}, fmt.Errorf("pair %s: %w", key, ErrBusy)
	}
	defer release()

	o.sessions.Touch(key, req.Channel, o.now())

	// 4. Context assembly.
	actorName := req.ActorName
	if actorName == "" {
		actorName = req.ActorID
	}
	actor := o.opts.Registry.Register(ctx, req.ActorID, actorName)
	score := o.opts.Reputation.Score(ctx, req.ActorID, req.CounterpartyID)
	threshold := reputation.ThresholdFor(score)
	recent := o.opts.Memory.RecentFor(ctx, req.ActorID, req.CounterpartyID, o.opts.RecallLimit)

	tc := generator.TalkContext{
		ActorID:          actor.ID,
		ActorName:        actor.EffectiveName(),
		Gender:           actor.Gender,
		Personality:      actor.Personality,
		Disposition:      string(threshold),
		Score:            score,
		CounterpartyName: req.CounterpartyName,
		Channel:          req.Channel,
	}
	for _, m := range recent {
		tc.Memories = append(tc.Memories, generator.MemoryExcerpt{
			Input:  m.Input,
			Output: m.Output,
			Day:    m.WorldDay,
		})
	}

	// 5. Generation through the resilient executor. The raw error never
	// reaches the counterparty; a failed turn gets a filler line and
	// leaves no memory record.
	text, err := retry.Do(ctx, o.opts.Executor, "generate-response", func(ctx context.Context) (string, error) {
		return o.opts.Generator.Generate(ctx, req.Input, tc)
	})
	if err != nil {
		logger.ErrorCF("orchestrator", "Generation failed, using fallback", map[string]interface{}{
			"turn_id":      turnID,
			"actor_id":     req.ActorID,
			"counterparty": req.CounterpartyID,
			"error":        err.Error(),
		})
		o.opts.Notifier.Notify(req.CounterpartyID, notify.CategoryDegraded,
			"The world's voices are faint right now; replies may come slowly.")
		return Response{Text: generator.Fallback(tc), UsedFallback: true}, nil
	}

	// 6. Post-processing, only on generation success.
	signal := o.postProcess(ctx, req, text)

	logger.InfoCF("orchestrator", "Turn completed", map[string]interface{}{
		"turn_id":      turnID,
		"actor_id":     req.ActorID,
		"counterparty": req.CounterpartyID,
		"channel":      string(req.Channel),
		"signal":       signalName(signal),
	})

	return Response{Text: text, Signal: signal}, nil
}

// postProcess applies the sentiment event, appends the memory record, and
// evaluates the one-shot behavior triggers, latching whichever fires.
func (o *Orchestrator) postProcess(ctx context.Context, req Request, output string) *BehaviorSignal {
	eventType := o.opts.Reputation.Classify(req.Input)
	rec := o.opts.Reputation.AddEvent(ctx, req.ActorID, req.CounterpartyID, eventType, 0,
		generator.TrimToChars(req.Input, 120))

	var signal *BehaviorSignal
	switch {
	case reputation.ShouldFireMajor(rec):
		signal = &BehaviorSignal{ActorID: req.ActorID, CounterpartyID: req.CounterpartyID, Kind: SignalSpawnGuardian}
		o.opts.Reputation.MarkMajorFired(ctx, req.ActorID, req.CounterpartyID)
	case reputation.ShouldFireMinor(rec):
		signal = &BehaviorSignal{ActorID: req.ActorID, CounterpartyID: req.CounterpartyID, Kind: SignalAttack}
		o.opts.Reputation.MarkMinorFired(ctx, req.ActorID, req.CounterpartyID)
	}

	o.opts.Memory.Append(ctx, req.ActorID, world.MemoryRecord{
		CounterpartyID:   req.CounterpartyID,
		CounterpartyName: req.CounterpartyName,
		Input:            req.Input,
		Output:           output,
		Channel:          req.Channel,
		WorldDay:         o.opts.Clock.CurrentDay(),
	})
	o.opts.Registry.Touch(ctx, req.ActorID)

	return signal
}

// Disconnect drops per-counterparty admission state.
func (o *Orchestrator) Disconnect(counterpartyID string) {
	o.opts.Limiter.Forget(counterpartyID)
}

// ActiveSessions reports the current session count, for status surfaces.
func (o *Orchestrator) ActiveSessions() int {
	return o.sessions.Len()
}

func signalName(s *BehaviorSignal) string {
	if s == nil {
		return ""
	}
	return string(s.Kind)
}
