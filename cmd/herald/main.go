// Command herald runs the message-driven job dispatch service. One process
// serves one channel, selected by -mode or auto-detected from the
// configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmcrae/herald/internal/adapter/discord"
	"github.com/kmcrae/herald/internal/adapter/httpapi"
	"github.com/kmcrae/herald/internal/adapter/slack"
	"github.com/kmcrae/herald/internal/adapter/telegram"
	"github.com/kmcrae/herald/internal/adapter/term"
	"github.com/kmcrae/herald/internal/backend"
	"github.com/kmcrae/herald/internal/config"
	"github.com/kmcrae/herald/internal/engine"
	"github.com/kmcrae/herald/internal/events"
	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
	"github.com/kmcrae/herald/internal/router"
	"github.com/kmcrae/herald/internal/task"
	"github.com/kmcrae/herald/internal/worker"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("herald", flag.ContinueOnError)
	mode := fs.String("mode", "auto", "channel mode: auto, term, daemon, telegram, discord, slack, http")
	configPath := fs.String("config", "", "path to herald.yaml or its directory")
	queueSize := fs.Int("queue-size", 0, "override job queue capacity")
	shutdownTimeout := fs.Duration("shutdown-timeout", 0, "override shutdown timeout")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("herald version %s\n", version)
		return 0
	}

	if *configPath == "" {
		*configPath = config.Discover()
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *queueSize > 0 {
		cfg.Engine.QueueSize = *queueSize
	}
	if *shutdownTimeout > 0 {
		cfg.Engine.ShutdownTimeout = config.Duration(*shutdownTimeout)
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")

	resolved, err := resolveMode(*mode, cfg, isTerminal(os.Stdin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	logger.Info("herald starting", "version", version, "mode", resolved, "config", *configPath)

	be, err := backend.New(cfg.Ask)
	if err != nil {
		logger.Error("failed to configure ask backend", "error", err)
		return 1
	}
	logger.Info("ask backend ready", "backend", be.Name())

	reg := task.NewRegistry()
	for _, t := range []task.Task{task.NewPing(), task.NewEcho(), task.NewAsk(be)} {
		if err := reg.Register(t); err != nil {
			logger.Error("task registration failed", "task", t.Name(), "error", err)
			return 1
		}
	}

	tok := queue.NewToken()
	q := queue.New(cfg.Engine.QueueSize)
	pool := worker.New(context.Background(), reg, q, tok, cfg.Engine.Workers)
	hub := events.NewHub()
	core := engine.New(reg, router.NewPrefix(), pool, engine.Options{
		DeliverTimeout: cfg.Engine.DeliverTimeout.Std(),
		UserRate:       cfg.Engine.UserRate,
		UserBurst:      cfg.Engine.UserBurst,
		Hub:            hub,
	})
	core.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	switch resolved {
	case "term":
		core.SetSink(term.NewSink())
		repl := term.New(core)
		go func() { errCh <- repl.Run(ctx) }()
	case "telegram":
		bot, err := telegram.New(cfg.Telegram.Token, core)
		if err != nil {
			logger.Error("telegram setup failed", "error", err)
			return 1
		}
		core.SetSink(bot)
		go func() { errCh <- bot.Run(ctx) }()
	case "discord":
		bot, err := discord.New(cfg.Discord.Token, core)
		if err != nil {
			logger.Error("discord setup failed", "error", err)
			return 1
		}
		core.SetSink(bot)
		go func() { errCh <- bot.Run(ctx) }()
	case "slack":
		bot, err := slack.New(cfg.Slack.AppToken, cfg.Slack.BotToken, core)
		if err != nil {
			logger.Error("slack setup failed", "error", err)
			return 1
		}
		core.SetSink(bot)
		go func() { errCh <- bot.Run(ctx) }()
	case "http":
		core.SetSink(httpapi.NewHubSink(hub))
		srv := httpapi.New(httpapi.Config{Listen: cfg.HTTP.Listen, Token: cfg.HTTP.Token}, core, q, hub)
		go func() { errCh <- srv.Run(ctx) }()
	case "daemon":
		core.SetSink(logSink{})
		go func() { <-ctx.Done(); errCh <- nil }()
	}

	logger.Info("herald running", "mode", resolved)

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("channel adapter failed", "mode", resolved, "error", err)
			exitCode = 1
		} else {
			logger.Info("channel adapter finished")
		}
	}
	stop()

	done := make(chan struct{})
	go func() {
		core.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(cfg.Engine.ShutdownTimeout.Std()):
		logger.Warn("shutdown timed out", "timeout", cfg.Engine.ShutdownTimeout.Std())
	}
	return exitCode
}

// resolveMode validates -mode and expands auto using the configured tokens:
// the first configured chat channel wins, an interactive stdin selects the
// terminal, and anything else runs as a daemon.
func resolveMode(mode string, cfg *config.Config, interactive bool) (string, error) {
	switch mode {
	case "term", "daemon", "telegram", "discord", "slack", "http":
		return mode, nil
	case "auto":
	default:
		return "", fmt.Errorf("invalid mode %q (expected auto, term, daemon, telegram, discord, slack or http)", mode)
	}

	switch {
	case cfg.Telegram.Token != "":
		return "telegram", nil
	case cfg.Discord.Token != "":
		return "discord", nil
	case cfg.Slack.AppToken != "" && cfg.Slack.BotToken != "":
		return "slack", nil
	case interactive:
		return "term", nil
	default:
		return "daemon", nil
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// logSink records results in the service log. Daemon mode has no outward
// channel; results are still observable here and on the event hub.
type logSink struct{}

func (logSink) Deliver(job queue.Job, resp message.Response) error {
	log.WithJob(job.ID).Info("job result",
		"task", job.TaskName,
		"channel", job.ChannelID,
		"text", resp.Text,
	)
	return nil
}
