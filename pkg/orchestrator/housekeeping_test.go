package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/mossygate/parley/pkg/world"
)

func TestHousekeepingEvictsStaleSessions(t *testing.T) {
	rig := newRig(t, echoGen(), func(o *Options) {
		o.SessionTimeout = 10 * time.Millisecond
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := rig.orch.Handle(ctx, req("hello")); err != nil {
		t.Fatalf("turn: %v", err)
	}
	if rig.orch.ActiveSessions() != 1 {
		t.Fatalf("expected 1 session, got %d", rig.orch.ActiveSessions())
	}

	go rig.orch.RunHousekeeping(ctx, HousekeepingOptions{Tick: 10 * time.Millisecond})

	deadline := time.Now().Add(2 * time.Second)
	for rig.orch.ActiveSessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stale session was never evicted")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Eviction is transparent: the pair just gets a fresh session.
	if _, err := rig.orch.Handle(ctx, req("back again")); err != nil {
		t.Fatalf("turn after eviction: %v", err)
	}
	recs := rig.memory.RecentFor(ctx, "npc:smith", "player:1", 10)
	if len(recs) != 2 {
		t.Fatalf("memory must survive session eviction, got %d records", len(recs))
	}
}

func TestHousekeepingPurgesOnSchedule(t *testing.T) {
	rig := newRig(t, echoGen())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// World day is fixed at 50; a record from day 1 is far past retention.
	rig.memory.Append(ctx, "npc:smith", world.MemoryRecord{
		CounterpartyID: "player:1",
		Input:          "ancient words",
		WorldDay:       1,
	})

	go rig.orch.RunHousekeeping(ctx, HousekeepingOptions{
		PurgeSchedule: "* * * * *", // due every minute
		Tick:          10 * time.Millisecond,
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if len(rig.memory.RecentFor(ctx, "npc:smith", "player:1", 10)) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expired memory was never purged")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
