package notify

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/logger"
)

// Category groups user-facing notices for cooldown purposes.
type Category string

const (
	CategoryDegraded    Category = "degraded"
	CategoryRateLimited Category = "rate_limited"
	CategoryFallback    Category = "fallback"
)

// Notifier delivers unobtrusive user-facing notices about degraded
// service. Implementations dedup per (counterparty, category) so a flapping
// upstream does not spam the counterparty.
type Notifier interface {
	Notify(counterpartyID string, category Category, message string)
}

// BusNotifier publishes notices on the outbound bus, suppressing repeats
// within the cooldown window via an expiring cache.
type BusNotifier struct {
	bus      *bus.MessageBus
	routeFor func(counterpartyID string) (channel, chatID string)
	cooldown *expirable.LRU[string, struct{}]
}

// NewBusNotifier builds a notifier. routeFor maps a counterparty to the
// transport target its notices should reach.
func NewBusNotifier(b *bus.MessageBus, routeFor func(string) (string, string), cooldown time.Duration) *BusNotifier {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &BusNotifier{
		bus:      b,
		routeFor: routeFor,
		cooldown: expirable.NewLRU[string, struct{}](1024, nil, cooldown),
	}
}

func (n *BusNotifier) Notify(counterpartyID string, category Category, message string) {
	key := fmt.Sprintf("%s|%s", counterpartyID, category)
	if _, suppressed := n.cooldown.Get(key); suppressed {
		return
	}
	n.cooldown.Add(key, struct{}{})

	channel, chatID := "", counterpartyID
	if n.routeFor != nil {
		channel, chatID = n.routeFor(counterpartyID)
	}
	n.bus.PublishOutbound(bus.OutboundMessage{
		Channel: channel,
		ChatID:  chatID,
		Kind:    bus.KindNotice,
		Content: message,
		Meta:    map[string]string{"category": string(category)},
	})
	logger.DebugCF("notify", "Notice sent", map[string]interface{}{
		"counterparty": counterpartyID,
		"category":     string(category),
	})
}

// NopNotifier discards notices; used by CLI tooling and tests.
type NopNotifier struct{}

func (NopNotifier) Notify(string, Category, string) {}
