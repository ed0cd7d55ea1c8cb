package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/world"
)

// Runner drains the inbound bus into the orchestrator and publishes
// replies, notices, and behavior signals outbound. Different pairs proceed
// fully in parallel; per-pair serialization happens inside Handle.
type Runner struct {
	orch *Orchestrator
	bus  *bus.MessageBus

	routeMu sync.RWMutex
	routes  map[string]route // counterpartyID -> last seen transport target
}

type route struct {
	channel string
	chatID  string
}

func NewRunner(orch *Orchestrator, b *bus.MessageBus) *Runner {
	return &Runner{
		orch:   orch,
		bus:    b,
		routes: make(map[string]route),
	}
}

// RouteFor maps a counterparty to the transport target it last spoke on.
// Used by the notifier so degraded-service notices reach the right place.
func (r *Runner) RouteFor(counterpartyID string) (string, string) {
	r.routeMu.RLock()
	defer r.routeMu.RUnlock()
	rt, ok := r.routes[counterpartyID]
	if !ok {
		return "", counterpartyID
	}
	return rt.channel, rt.chatID
}

// Run consumes inbound messages until ctx is done or the bus closes.
func (r *Runner) Run(ctx context.Context) {
	logger.InfoC("runner", "Conversation runner started")
	var wg sync.WaitGroup
	for {
		msg, ok := r.bus.ConsumeInbound(ctx)
		if !ok {
			break
		}
		wg.Add(1)
		go func(msg bus.InboundMessage) {
			defer wg.Done()
			r.process(ctx, msg)
		}(msg)
	}
	wg.Wait()
	logger.InfoC("runner", "Conversation runner stopped")
}

func (r *Runner) process(ctx context.Context, msg bus.InboundMessage) {
	r.routeMu.Lock()
	r.routes[msg.CounterpartyID] = route{channel: msg.Channel, chatID: msg.ChatID}
	r.routeMu.Unlock()

	talkChannel := msg.TalkChannel
	if talkChannel == "" {
		talkChannel = world.ChannelText
	}

	resp, err := r.orch.Handle(ctx, Request{
		ActorID:          msg.ActorID,
		CounterpartyID:   msg.CounterpartyID,
		CounterpartyName: msg.CounterpartyName,
		Input:            msg.Content,
		Channel:          talkChannel,
	})
	if err != nil {
		// Admission and validation rejections are silent toward the
		// counterparty; the notifier has already said what needed saying.
		if !errors.Is(err, ErrRateLimited) && !errors.Is(err, ErrBusy) {
			logger.WarnCF("runner", "Turn rejected", map[string]interface{}{
				"actor_id":     msg.ActorID,
				"counterparty": msg.CounterpartyID,
				"error":        err.Error(),
			})
		}
		return
	}

	r.bus.PublishOutbound(bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Kind:    bus.KindReply,
		Content: resp.Text,
		Meta: map[string]string{
			"actor_id": msg.ActorID,
		},
	})

	if resp.Signal != nil {
		r.bus.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Kind:    bus.KindBehavior,
			Meta: map[string]string{
				"actor_id":     resp.Signal.ActorID,
				"counterparty": resp.Signal.CounterpartyID,
				"kind":         string(resp.Signal.Kind),
			},
		})
	}
}
