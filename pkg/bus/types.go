package bus

import "github.com/mossygate/parley/pkg/world"

// InboundMessage is one counterparty line addressed to an actor, as
// delivered by a transport channel.
type InboundMessage struct {
	Channel          string // transport name, e.g. "discord", "console"
	ChatID           string // transport-specific reply target
	ActorID          string
	CounterpartyID   string
	CounterpartyName string
	Content          string
	TalkChannel      world.Channel
}

// OutboundKind distinguishes what an outbound message carries.
type OutboundKind string

const (
	KindReply    OutboundKind = "reply"
	KindNotice   OutboundKind = "notice"
	KindBehavior OutboundKind = "behavior"
)

// OutboundMessage is a reply, a degraded-service notice, or a behavior
// signal for the world layer, routed back through the transport channels.
type OutboundMessage struct {
	Channel string
	ChatID  string
	Kind    OutboundKind
	Content string
	Meta    map[string]string
}
