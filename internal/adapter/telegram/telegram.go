// Package telegram bridges Telegram chats to the engine over long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

// channelPrefix namespaces Telegram chat ids inside job channel ids.
const channelPrefix = "telegram:"

// Handler is the engine surface the adapter needs.
type Handler interface {
	Handle(msg message.Message) message.Response
}

// Bot consumes Telegram updates and delivers results back to the chats they
// came from. It is both the inbound adapter and the engine sink.
type Bot struct {
	bot     *telego.Bot
	handler Handler
	logger  *slog.Logger
}

// New authenticates against the Telegram API.
func New(token string, h Handler) (*Bot, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Bot{
		bot:     bot,
		handler: h,
		logger:  log.WithComponent("telegram"),
	}, nil
}

// Run long-polls for updates until ctx is canceled. Each text message is
// handed to the engine; a text acknowledgement is sent back immediately,
// an empty one becomes a typing indicator while the job runs.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to identify telegram bot: %w", err)
	}
	b.logger.Info("telegram connected", "username", me.Username)

	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start telegram polling: %w", err)
	}

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Text == "" || msg.From == nil || msg.From.IsBot {
			continue
		}
		chatID := msg.Chat.ID
		resp := b.handler.Handle(message.Message{
			UserID:  strconv.FormatInt(msg.From.ID, 10),
			Channel: channelPrefix + strconv.FormatInt(chatID, 10),
			Text:    msg.Text,
			Metadata: map[string]string{
				"username": msg.From.Username,
			},
		})
		switch {
		case resp.Text != "":
			b.send(ctx, chatID, resp.Text)
		case resp.Ephemeral:
			b.typing(ctx, chatID)
		}
	}
	return nil
}

// Deliver implements engine.Sink. The chat id is recovered from the job's
// channel id; jobs from other channels are not ours to deliver.
func (b *Bot) Deliver(job queue.Job, resp message.Response) error {
	raw, ok := strings.CutPrefix(job.ChannelID, channelPrefix)
	if !ok {
		return fmt.Errorf("not a telegram channel: %s", job.ChannelID)
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram channel %q: %w", job.ChannelID, err)
	}
	if _, err := b.bot.SendMessage(context.Background(), tu.Message(tu.ID(chatID), resp.Text)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	if _, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		b.logger.Warn("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) typing(ctx context.Context, chatID int64) {
	err := b.bot.SendChatAction(ctx, &telego.SendChatActionParams{
		ChatID: tu.ID(chatID),
		Action: telego.ChatActionTyping,
	})
	if err != nil {
		b.logger.Debug("typing action failed", "chat_id", chatID, "error", err)
	}
}
