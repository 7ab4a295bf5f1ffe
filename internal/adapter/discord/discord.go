// Package discord bridges Discord channels to the engine over the gateway.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

// channelPrefix namespaces Discord channel ids inside job channel ids.
const channelPrefix = "discord:"

// Handler is the engine surface the adapter needs.
type Handler interface {
	Handle(msg message.Message) message.Response
}

// Bot consumes Discord message events and delivers results back to the
// channels they came from. It is both the inbound adapter and the engine
// sink.
type Bot struct {
	session *discordgo.Session
	handler Handler
	logger  *slog.Logger
}

// New builds a gateway session with the message intents the adapter needs.
func New(token string, h Handler) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		handler: h,
		logger:  log.WithComponent("discord"),
	}
	session.AddHandler(b.onMessage)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	b.logger.Info("discord connected", "username", b.session.State.User.Username)

	<-ctx.Done()
	if err := b.session.Close(); err != nil {
		b.logger.Warn("gateway close failed", "error", err)
	}
	return nil
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Content == "" {
		return
	}
	resp := b.handler.Handle(message.Message{
		UserID:  m.Author.ID,
		Channel: channelPrefix + m.ChannelID,
		Text:    m.Content,
		Metadata: map[string]string{
			"username": m.Author.Username,
			"guild_id": m.GuildID,
		},
	})
	switch {
	case resp.Text != "":
		if _, err := s.ChannelMessageSend(m.ChannelID, resp.Text); err != nil {
			b.logger.Warn("send failed", "channel_id", m.ChannelID, "error", err)
		}
	case resp.Ephemeral:
		if err := s.ChannelTyping(m.ChannelID); err != nil {
			b.logger.Debug("typing indicator failed", "channel_id", m.ChannelID, "error", err)
		}
	}
}

// Deliver implements engine.Sink. The Discord channel id is recovered from
// the job's channel id; jobs from other channels are not ours to deliver.
func (b *Bot) Deliver(job queue.Job, resp message.Response) error {
	channelID, ok := strings.CutPrefix(job.ChannelID, channelPrefix)
	if !ok {
		return fmt.Errorf("not a discord channel: %s", job.ChannelID)
	}
	if _, err := b.session.ChannelMessageSend(channelID, resp.Text); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}
