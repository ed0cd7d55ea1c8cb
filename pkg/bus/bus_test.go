package bus

import (
	"context"
	"testing"
	"time"
)

func TestInboundRoundtrip(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	mb.PublishInbound(InboundMessage{
		Channel:        "discord",
		ChatID:         "chan-1",
		ActorID:        "npc:smith",
		CounterpartyID: "player:1",
		Content:        "hello",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.ActorID != "npc:smith" || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestOutboundRoundtrip(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	mb.PublishOutbound(OutboundMessage{Channel: "discord", ChatID: "chan-1", Kind: KindReply, Content: "aye"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.SubscribeOutbound(ctx)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Kind != KindReply || msg.Content != "aye" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestConsumeRespectsContext(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := mb.ConsumeInbound(ctx); ok {
		t.Fatal("expected consume to give up on context expiry")
	}
}

func TestOverflowDropsAndCounts(t *testing.T) {
	mb := NewMessageBus()
	defer mb.Close()

	for i := 0; i < 101; i++ {
		mb.PublishInbound(InboundMessage{Content: "x"})
	}
	if got := mb.DroppedInbound(); got != 1 {
		t.Fatalf("expected 1 dropped inbound message, got %d", got)
	}
}

func TestCloseIsIdempotentAndSilencesPublish(t *testing.T) {
	mb := NewMessageBus()
	mb.Close()
	mb.Close()

	// Publishing after close must be a quiet no-op, not a panic.
	mb.PublishInbound(InboundMessage{Content: "late"})
	mb.PublishOutbound(OutboundMessage{Content: "late"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := mb.ConsumeInbound(ctx); ok {
		t.Fatal("closed bus should not deliver")
	}
}
