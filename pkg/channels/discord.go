package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mossygate/parley/pkg/bus"
	"github.com/mossygate/parley/pkg/config"
	"github.com/mossygate/parley/pkg/logger"
	"github.com/mossygate/parley/pkg/world"
)

// DiscordChannel maps Discord channels to actors: each configured channel
// id is answered by one actor, and every Discord user talking there is a
// counterparty.
type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
	config  config.DiscordConfig
}

func NewDiscordChannel(cfg config.DiscordConfig, b *bus.MessageBus) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", b, cfg.AllowFrom),
		session:     session,
		config:      cfg,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord channel")

	c.session.AddHandler(c.handleMessage)
	c.session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	c.setRunning(true)

	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("get bot user: %w", err)
	}
	logger.InfoCF("discord", "Discord channel connected", map[string]interface{}{
		"username": botUser.Username,
		"actors":   len(c.config.Actors),
	})
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord channel")
	c.setRunning(false)
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	actorID, ok := c.config.Actors[m.ChannelID]
	if !ok || strings.TrimSpace(m.Content) == "" {
		return
	}
	c.HandleMessage(m.ChannelID, actorID, m.Author.ID, m.Author.Username, m.Content, world.ChannelText)
}

func (c *DiscordChannel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord channel not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("chat id is empty")
	}

	content := msg.Content
	switch msg.Kind {
	case bus.KindNotice:
		content = "*" + content + "*"
	case bus.KindBehavior:
		content = fmt.Sprintf("*%s*", behaviorLine(msg.Meta))
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}

	for _, chunk := range splitMessage(content, 1900) {
		if _, err := c.session.ChannelMessageSend(msg.ChatID, chunk); err != nil {
			return fmt.Errorf("send to %s: %w", msg.ChatID, err)
		}
	}
	return nil
}

func behaviorLine(meta map[string]string) string {
	switch meta["kind"] {
	case "attack":
		return "The villager turns on you!"
	case "spawn_guardian":
		return "A guardian answers the villager's call."
	default:
		return "Something stirs."
	}
}

// splitMessage chunks long replies at natural boundaries so Discord's
// message length limit is never hit mid-word.
func splitMessage(msg string, limit int) []string {
	var result []string
	for len(msg) > limit {
		cut := strings.LastIndex(msg[:limit], "\n")
		if cut <= 0 {
			cut = strings.LastIndex(msg[:limit], " ")
		}
		if cut <= 0 {
			cut = limit
		}
		result = append(result, strings.TrimSpace(msg[:cut]))
		msg = strings.TrimSpace(msg[cut:])
	}
	if msg != "" {
		result = append(result, msg)
	}
	return result
}
