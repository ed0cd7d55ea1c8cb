package orchestrator

import (
	"testing"
	"time"

	"github.com/mossygate/parley/pkg/world"
)

func TestSessionTouchCreatesAndRefreshes(t *testing.T) {
	table := newSessionTable()
	start := time.Now()

	s := table.Touch("npc:smith|player:1", world.ChannelText, start)
	if s.StartedAt != start || s.LastActivityAt != start {
		t.Fatal("new session should be stamped with the touch time")
	}

	later := start.Add(time.Minute)
	s2 := table.Touch("npc:smith|player:1", world.ChannelVoice, later)
	if s2.StartedAt != start {
		t.Error("refresh must not reset the session start")
	}
	if s2.LastActivityAt != later {
		t.Error("refresh should advance last activity")
	}
	if s2.Channel != world.ChannelVoice {
		t.Error("refresh should track the latest channel")
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", table.Len())
	}
}

func TestEvictStale(t *testing.T) {
	table := newSessionTable()
	start := time.Now()

	table.Touch("a|1", world.ChannelText, start)
	table.Touch("b|2", world.ChannelText, start.Add(4*time.Minute))

	evicted := table.EvictStale(5*time.Minute, start.Add(6*time.Minute))
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 surviving session, got %d", table.Len())
	}

	// Idle exactly at the timeout survives; eviction needs strictly longer.
	evicted = table.EvictStale(5*time.Minute, start.Add(9*time.Minute))
	if evicted != 0 {
		t.Errorf("session idle exactly the timeout should survive, evicted %d", evicted)
	}

	// Eviction is transparent: the next touch just recreates the session.
	table.Touch("a|1", world.ChannelText, start.Add(10*time.Minute))
	if table.Len() != 2 {
		t.Fatalf("expected recreated session, got %d", table.Len())
	}
}
