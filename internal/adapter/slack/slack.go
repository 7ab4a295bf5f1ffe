// Package slack bridges Slack workspaces to the engine over Socket Mode.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

// channelPrefix namespaces Slack channel ids inside job channel ids.
const channelPrefix = "slack:"

// Handler is the engine surface the adapter needs.
type Handler interface {
	Handle(msg message.Message) message.Response
}

// Bot consumes Slack Events API messages over a Socket Mode connection and
// delivers results back with the Web API. It is both the inbound adapter
// and the engine sink.
type Bot struct {
	api     *slack.Client
	socket  *socketmode.Client
	handler Handler
	logger  *slog.Logger
}

// New builds the Web API client and its Socket Mode wrapper. The app token
// must be an app-level token with connections:write scope.
func New(appToken, botToken string, h Handler) (*Bot, error) {
	if !strings.HasPrefix(appToken, "xapp-") {
		return nil, fmt.Errorf("slack app token must start with xapp-")
	}
	if !strings.HasPrefix(botToken, "xoxb-") {
		return nil, fmt.Errorf("slack bot token must start with xoxb-")
	}
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	return &Bot{
		api:     api,
		socket:  socketmode.New(api),
		handler: h,
		logger:  log.WithComponent("slack"),
	}, nil
}

// Run opens the Socket Mode connection and consumes events until ctx is
// canceled. Every Events API envelope is acked before processing so Slack
// does not redeliver while a job runs.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		if err := b.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			b.logger.Error("socket mode stopped", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-b.socket.Events:
			if !ok {
				return nil
			}
			b.handleEvent(evt)
		}
	}
}

func (b *Bot) handleEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnected:
		b.logger.Info("slack connected")
	case socketmode.EventTypeEventsAPI:
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.socket.Ack(*evt.Request)
		}
		if ev, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			b.onMessage(ev)
		}
	}
}

func (b *Bot) onMessage(ev *slackevents.MessageEvent) {
	// Bot posts and edits come back through the same event stream.
	if ev.BotID != "" || ev.SubType != "" || ev.Text == "" {
		return
	}
	resp := b.handler.Handle(message.Message{
		UserID:  ev.User,
		Channel: channelPrefix + ev.Channel,
		Text:    ev.Text,
		Metadata: map[string]string{
			"ts": ev.TimeStamp,
		},
	})
	if resp.Text != "" {
		if _, _, err := b.api.PostMessage(ev.Channel, slack.MsgOptionText(resp.Text, false)); err != nil {
			b.logger.Warn("post failed", "channel_id", ev.Channel, "error", err)
		}
	}
}

// Deliver implements engine.Sink. The Slack channel id is recovered from
// the job's channel id; jobs from other channels are not ours to deliver.
func (b *Bot) Deliver(job queue.Job, resp message.Response) error {
	channelID, ok := strings.CutPrefix(job.ChannelID, channelPrefix)
	if !ok {
		return fmt.Errorf("not a slack channel: %s", job.ChannelID)
	}
	if _, _, err := b.api.PostMessage(channelID, slack.MsgOptionText(resp.Text, false)); err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}
