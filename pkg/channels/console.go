package channels

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/world"
)

// ConsoleChannel is a local readline transport: everything typed goes to
// one actor, with the local user as the counterparty. Used by the gateway
// for offline testing.
type ConsoleChannel struct {
	*BaseChannel
	actorID          string
	counterpartyID   string
	counterpartyName string
	rl               *readline.Instance
	cancel           context.CancelFunc
}

const consoleChatID = "console"

func NewConsoleChannel(b *bus.MessageBus, actorID, counterpartyName string) *ConsoleChannel {
	return &ConsoleChannel{
		BaseChannel:      NewBaseChannel("console", b, nil),
		actorID:          actorID,
		counterpartyID:   "console:" + counterpartyName,
		counterpartyName: counterpartyName,
	}
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	c.rl = rl

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setRunning(true)

	go c.readLoop(runCtx)
	logger.InfoCF("console", "Console channel started", map[string]interface{}{
		"actor_id": c.actorID,
	})
	return nil
}

func (c *ConsoleChannel) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF || err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.HandleMessage(consoleChatID, c.actorID, c.counterpartyID, c.counterpartyName, line, world.ChannelText)
	}
}

func (c *ConsoleChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

func (c *ConsoleChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	switch msg.Kind {
	case bus.KindNotice:
		fmt.Printf("  * %s\n", msg.Content)
	case bus.KindBehavior:
		fmt.Printf("  ! %s\n", behaviorLine(msg.Meta))
	default:
		fmt.Printf("%s\n", msg.Content)
	}
	return nil
}
