package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mossygate/parley/pkg/generator"
	"github.com/mossygate/parley/pkg/memory"
	"github.com/mossygate/parley/pkg/notify"
	"github.com/mossygate/parley/pkg/ratelimit"
	"github.com/mossygate/parley/pkg/reputation"
	"github.com/mossygate/parley/pkg/retry"
	"github.com/mossygate/parley/pkg/world"
)

type memStore struct {
	mu     sync.Mutex
	actors map[string]*world.Actor
}

func newMemStore() *memStore {
	return &memStore{actors: make(map[string]*world.Actor)}
}

func (s *memStore) Load(ctx context.Context, actorID string) (*world.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[actorID]
	if !ok {
		return nil, world.ErrActorNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, actor *world.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *actor
	s.actors[actor.ID] = &cp
	return nil
}

func (s *memStore) ListIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *memStore) Delete(ctx context.Context, actorID string) error {
	return nil
}

// funcGen adapts a function into a Generator.
type funcGen func(ctx context.Context, input string, tc generator.TalkContext) (string, error)

func (f funcGen) Generate(ctx context.Context, input string, tc generator.TalkContext) (string, error) {
	return f(ctx, input, tc)
}

type testRig struct {
	orch       *Orchestrator
	registry   *world.Registry
	memory     *memory.Store
	reputation *reputation.Engine
	limiter    *ratelimit.Limiter
}

func newRig(t *testing.T, gen generator.Generator, opts ...func(*Options)) *testRig {
	t.Helper()
	registry := world.NewRegistry(newMemStore())
	clock := world.FixedClock(50)
	mem := memory.NewStore(registry, clock)
	rep := reputation.NewEngine(registry, reputation.KeywordClassifier{})
	limiter := ratelimit.New(1000, time.Minute)

	o := Options{
		Registry:   registry,
		Memory:     mem,
		Reputation: rep,
		Limiter:    limiter,
		Executor: retry.NewExecutor(retry.Policy{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   1,
		}),
		Generator: gen,
		Clock:     clock,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &testRig{
		orch:       New(o),
		registry:   registry,
		memory:     mem,
		reputation: rep,
		limiter:    limiter,
	}
}

func echoGen() generator.Generator {
	return funcGen(func(ctx context.Context, input string, tc generator.TalkContext) (string, error) {
		return "aye, " + input, nil
	})
}

func req(input string) Request {
	return Request{
		ActorID:          "npc:smith",
		ActorName:        "Torvald",
		CounterpartyID:   "player:1",
		CounterpartyName: "Hrothgar",
		Input:            input,
		Channel:          world.ChannelText,
	}
}

func TestHandleRecordsMemoryAndReputation(t *testing.T) {
	rig := newRig(t, echoGen())
	ctx := context.Background()

	resp, err := rig.orch.Handle(ctx, req("thank you for the fine sword"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "aye, thank you for the fine sword" {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
	if resp.UsedFallback {
		t.Error("successful generation must not be marked fallback")
	}
	if resp.Signal != nil {
		t.Errorf("no behavior signal expected, got %v", resp.Signal.Kind)
	}

	if score := rig.reputation.Score(ctx, "npc:smith", "player:1"); score != 5 {
		t.Errorf("politeness should score +5, got %d", score)
	}
	recs := rig.memory.RecentFor(ctx, "npc:smith", "player:1", 10)
	if len(recs) != 1 {
		t.Fatalf("expected 1 memory record, got %d", len(recs))
	}
	if recs[0].WorldDay != 50 {
		t.Errorf("memory should be stamped with the world day, got %d", recs[0].WorldDay)
	}
	if recs[0].Output != resp.Text {
		t.Errorf("memory output %q does not match reply %q", recs[0].Output, resp.Text)
	}
}

func TestRudenessEscalationFiresTriggersOnce(t *testing.T) {
	rig := newRig(t, echoGen())
	ctx := context.Background()

	var attacks, guardians int
	// Each rude turn scores -10. Turn 4 reaches -40 (unfriendly), turn 8
	// reaches -80 (hostile). Each trigger fires exactly once.
	for turn := 1; turn <= 10; turn++ {
		resp, err := rig.orch.Handle(ctx, req(fmt.Sprintf("you stupid oaf, turn %d", turn)))
		if err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}
		if resp.Signal != nil {
			switch resp.Signal.Kind {
			case SignalAttack:
				attacks++
				if turn != 4 {
					t.Errorf("attack fired on turn %d, want 4", turn)
				}
			case SignalSpawnGuardian:
				guardians++
				if turn != 8 {
					t.Errorf("guardian fired on turn %d, want 8", turn)
				}
			}
		}
	}
	if attacks != 1 {
		t.Errorf("attack signal fired %d times, want exactly 1", attacks)
	}
	if guardians != 1 {
		t.Errorf("guardian signal fired %d times, want exactly 1", guardians)
	}

	if score := rig.reputation.Score(ctx, "npc:smith", "player:1"); score != -100 {
		t.Errorf("expected clamped score -100 after 10 rude turns, got %d", score)
	}
}

func TestGenerationFailureDegradesToFallback(t *testing.T) {
	failing := funcGen(func(ctx context.Context, input string, tc generator.TalkContext) (string, error) {
		return "", errors.New("status=401 unauthorized")
	})
	rig := newRig(t, failing)
	ctx := context.Background()

	resp, err := rig.orch.Handle(ctx, req("hello there"))
	if err != nil {
		t.Fatalf("generation failure must not surface as an error, got %v", err)
	}
	if !resp.UsedFallback {
		t.Fatal("response should be marked as fallback")
	}
	if resp.Text == "" {
		t.Fatal("fallback must still carry a reply")
	}

	// A failed turn leaves no trace: no memory record, no reputation event.
	if recs := rig.memory.RecentFor(ctx, "npc:smith", "player:1", 10); len(recs) != 0 {
		t.Errorf("failed turn must not be remembered, got %d records", len(recs))
	}
	if _, ok := rig.reputation.Record(ctx, "npc:smith", "player:1"); ok {
		t.Error("failed turn must not score reputation")
	}
}

func TestRateLimitedTurnHasNoSideEffects(t *testing.T) {
	rig := newRig(t, echoGen(), func(o *Options) {
		o.Limiter = ratelimit.New(1, time.Minute)
	})
	ctx := context.Background()

	if _, err := rig.orch.Handle(ctx, req("hello")); err != nil {
		t.Fatalf("first turn should pass: %v", err)
	}
	_, err := rig.orch.Handle(ctx, req("hello again"))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	if recs := rig.memory.RecentFor(ctx, "npc:smith", "player:1", 10); len(recs) != 1 {
		t.Errorf("rejected turn must not add memory, got %d records", len(recs))
	}
}

func TestValidatorRejectsBeforeStateChanges(t *testing.T) {
	rig := newRig(t, echoGen(), func(o *Options) {
		o.Validators = []Validator{
			func(r Request) error {
				return fmt.Errorf("too far away: %w", ErrOutOfRange)
			},
		}
	})
	ctx := context.Background()

	_, err := rig.orch.Handle(ctx, req("hello"))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if recs := rig.memory.RecentFor(ctx, "npc:smith", "player:1", 10); len(recs) != 0 {
		t.Error("rejected turn must leave no memory")
	}
	if rig.orch.ActiveSessions() != 0 {
		t.Error("rejected turn must not open a session")
	}
}

func TestBusyPairRejectsSecondTurn(t *testing.T) {
	rig := newRig(t, echoGen())

	release, ok := rig.orch.acquirePair(pairKey("npc:smith", "player:1"))
	if !ok {
		t.Fatal("first acquisition should succeed")
	}
	defer release()

	_, err := rig.orch.Handle(context.Background(), req("hello"))
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while a turn is in flight, got %v", err)
	}

	// A different pair is unaffected.
	other := req("hello")
	other.CounterpartyID = "player:2"
	if _, err := rig.orch.Handle(context.Background(), other); err != nil {
		t.Fatalf("different pair should proceed: %v", err)
	}
}

func TestDegradedServiceNotice(t *testing.T) {
	var mu sync.Mutex
	var categories []notify.Category
	recorder := notifierFunc(func(counterpartyID string, category notify.Category, message string) {
		mu.Lock()
		categories = append(categories, category)
		mu.Unlock()
	})

	failing := funcGen(func(ctx context.Context, input string, tc generator.TalkContext) (string, error) {
		return "", errors.New("status=503 service unavailable")
	})
	rig := newRig(t, failing, func(o *Options) {
		o.Notifier = recorder
	})

	if _, err := rig.orch.Handle(context.Background(), req("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(categories) != 1 || categories[0] != notify.CategoryDegraded {
		t.Fatalf("expected one degraded notice, got %v", categories)
	}
}

type notifierFunc func(counterpartyID string, category notify.Category, message string)

func (f notifierFunc) Notify(counterpartyID string, category notify.Category, message string) {
	f(counterpartyID, category, message)
}

func TestRecallLimitBoundsContext(t *testing.T) {
	var seenMemories int
	counting := funcGen(func(ctx context.Context, input string, tc generator.TalkContext) (string, error) {
		seenMemories = len(tc.Memories)
		return "mm", nil
	})
	rig := newRig(t, counting, func(o *Options) {
		o.RecallLimit = 2
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := rig.orch.Handle(ctx, req(fmt.Sprintf("line %d", i))); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}
	if seenMemories != 2 {
		t.Fatalf("expected recall limit of 2 memories in context, got %d", seenMemories)
	}
}

func TestDisconnectForgetsAdmissionState(t *testing.T) {
	rig := newRig(t, echoGen(), func(o *Options) {
		o.Limiter = ratelimit.New(1, time.Hour)
	})
	ctx := context.Background()

	if _, err := rig.orch.Handle(ctx, req("hello")); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if _, err := rig.orch.Handle(ctx, req("again")); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limit, got %v", err)
	}

	rig.orch.Disconnect("player:1")
	if _, err := rig.orch.Handle(ctx, req("back again")); err != nil {
		t.Fatalf("reconnected counterparty should start fresh: %v", err)
	}
}
