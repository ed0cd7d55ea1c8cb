package channels

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/world"
)

func TestIsAllowed(t *testing.T) {
	b := bus.NewMessageBus()
	defer b.Close()

	open := NewBaseChannel("test", b, nil)
	if !open.IsAllowed("anyone") {
		t.Fatal("empty allow list should admit everyone")
	}

	restricted := NewBaseChannel("test", b, []string{"12345", "@hrothgar"})
	tests := []struct {
		id   string
		want bool
	}{
		{"12345", true},
		{"12345|hrothgar", true},
		{"99999|hrothgar", true}, // username part matches
		{"99999|someone", false},
		{"99999", false},
	}
	for _, tt := range tests {
		if got := restricted.IsAllowed(tt.id); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestHandleMessagePublishesInbound(t *testing.T) {
	b := bus.NewMessageBus()
	defer b.Close()

	c := NewBaseChannel("test", b, nil)
	c.HandleMessage("chat-1", "npc:smith", "player:1", "Hrothgar", "hello", world.ChannelText)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := b.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected inbound message")
	}
	if msg.Channel != "test" || msg.ActorID != "npc:smith" || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestHandleMessageFiltersDisallowed(t *testing.T) {
	b := bus.NewMessageBus()
	defer b.Close()

	c := NewBaseChannel("test", b, []string{"somebody-else"})
	c.HandleMessage("chat-1", "npc:smith", "player:1", "Hrothgar", "hello", world.ChannelText)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := b.ConsumeInbound(ctx); ok {
		t.Fatal("disallowed counterparty must not publish")
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 100); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short message should pass through, got %v", got)
	}

	long := strings.Repeat("word ", 500)
	chunks := splitMessage(long, 100)
	if len(chunks) < 2 {
		t.Fatal("long message should be chunked")
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(chunk))
		}
		if chunk != strings.TrimSpace(chunk) {
			t.Errorf("chunk %d has ragged whitespace: %q", i, chunk)
		}
	}

	// Prefers newline boundaries.
	chunks = splitMessage("first line\nsecond line that goes on", 15)
	if chunks[0] != "first line" {
		t.Errorf("expected split at newline, got %q", chunks[0])
	}
}

func TestBehaviorLine(t *testing.T) {
	if line := behaviorLine(map[string]string{"kind": "attack"}); !strings.Contains(line, "turns on you") {
		t.Errorf("unexpected attack line %q", line)
	}
	if line := behaviorLine(map[string]string{"kind": "spawn_guardian"}); !strings.Contains(line, "guardian") {
		t.Errorf("unexpected guardian line %q", line)
	}
	if line := behaviorLine(nil); line == "" {
		t.Error("unknown kind should still produce a line")
	}
}

func TestManagerRegisterAndEnabled(t *testing.T) {
	b := bus.NewMessageBus()
	defer b.Close()

	m := NewManager(b)
	if got := m.EnabledChannels(); len(got) != 0 {
		t.Fatalf("expected no channels, got %v", got)
	}

	m.Register(&stubChannel{BaseChannel: NewBaseChannel("stub", b, nil)})
	if got := m.EnabledChannels(); len(got) != 1 || got[0] != "stub" {
		t.Fatalf("expected registered channel, got %v", got)
	}
}

func TestManagerDispatchRoutesToChannel(t *testing.T) {
	b := bus.NewMessageBus()
	defer b.Close()

	stub := &stubChannel{
		BaseChannel: NewBaseChannel("stub", b, nil),
		sent:        make(chan bus.OutboundMessage, 1),
	}
	m := NewManager(b)
	m.Register(stub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartAll(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.StopAll(context.Background())

	b.PublishOutbound(bus.OutboundMessage{Channel: "stub", ChatID: "c1", Kind: bus.KindReply, Content: "aye"})

	select {
	case msg := <-stub.sent:
		if msg.Content != "aye" {
			t.Fatalf("unexpected payload: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("dispatcher never delivered the message")
	}
}

type stubChannel struct {
	*BaseChannel
	sent chan bus.OutboundMessage
}

func (s *stubChannel) Start(ctx context.Context) error {
	s.setRunning(true)
	return nil
}

func (s *stubChannel) Stop(ctx context.Context) error {
	s.setRunning(false)
	return nil
}

func (s *stubChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if s.sent != nil {
		s.sent <- msg
	}
	return nil
}
