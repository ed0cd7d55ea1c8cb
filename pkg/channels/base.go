package channels

import (
	"context"
	"strings"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/world"
)

// Channel is one transport counterparties talk to actors through.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Send(ctx context.Context, msg bus.OutboundMessage) error
	IsRunning() bool
	IsAllowed(counterpartyID string) bool
}

type BaseChannel struct {
	bus       *bus.MessageBus
	name      string
	allowList []string
	running   bool
}

func NewBaseChannel(name string, b *bus.MessageBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       b,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running
}

func (c *BaseChannel) IsAllowed(counterpartyID string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	// Accept compound ids like "123456|username" against either part.
	idPart := counterpartyID
	userPart := ""
	if idx := strings.Index(counterpartyID, "|"); idx > 0 {
		idPart = counterpartyID[:idx]
		userPart = counterpartyID[idx+1:]
	}
	for _, allowed := range c.allowList {
		candidate := strings.TrimSpace(strings.TrimPrefix(allowed, "@"))
		if candidate == "" {
			continue
		}
		if candidate == counterpartyID || candidate == idPart || (userPart != "" && candidate == userPart) {
			return true
		}
	}
	return false
}

// HandleMessage publishes one counterparty line addressed to an actor.
func (c *BaseChannel) HandleMessage(chatID, actorID, counterpartyID, counterpartyName, content string, talkChannel world.Channel) {
	if !c.IsAllowed(counterpartyID) {
		return
	}
	c.bus.PublishInbound(bus.InboundMessage{
		Channel:          c.name,
		ChatID:           chatID,
		ActorID:          actorID,
		CounterpartyID:   counterpartyID,
		CounterpartyName: counterpartyName,
		Content:          content,
		TalkChannel:      talkChannel,
	})
}

func (c *BaseChannel) setRunning(running bool) {
	c.running = running
}
