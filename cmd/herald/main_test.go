package main

import (
	"strings"
	"testing"

	"github.com/kmcrae/herald/internal/config"
)

func TestResolveModeExplicit(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	for _, mode := range []string{"term", "daemon", "telegram", "discord", "slack", "http"} {
		got, err := resolveMode(mode, cfg, false)
		if err != nil {
			t.Fatalf("resolveMode(%s): %v", mode, err)
		}
		if got != mode {
			t.Fatalf("resolveMode(%s) = %s", mode, got)
		}
	}
}

func TestResolveModeRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := resolveMode("bogus", config.Defaults(), false)
	if err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Fatalf("err = %v", err)
	}
}

func TestResolveModeAuto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*config.Config)
		interactive bool
		want        string
	}{
		{
			name:   "telegram token wins",
			mutate: func(c *config.Config) { c.Telegram.Token = "t"; c.Discord.Token = "d" },
			want:   "telegram",
		},
		{
			name:   "discord token",
			mutate: func(c *config.Config) { c.Discord.Token = "d" },
			want:   "discord",
		},
		{
			name:   "slack needs both tokens",
			mutate: func(c *config.Config) { c.Slack.AppToken = "xapp-1"; c.Slack.BotToken = "xoxb-1" },
			want:   "slack",
		},
		{
			name:   "slack with one token falls through",
			mutate: func(c *config.Config) { c.Slack.AppToken = "xapp-1" },
			want:   "daemon",
		},
		{
			name:        "interactive terminal",
			mutate:      func(*config.Config) {},
			interactive: true,
			want:        "term",
		},
		{
			name:   "nothing configured",
			mutate: func(*config.Config) {},
			want:   "daemon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Defaults()
			tt.mutate(cfg)
			got, err := resolveMode("auto", cfg, tt.interactive)
			if err != nil {
				t.Fatalf("resolveMode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("resolveMode = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRunRejectsInvalidMode(t *testing.T) {
	if got := run([]string{"-mode", "bogus"}); got != 2 {
		t.Fatalf("run = %d, want 2", got)
	}
}

func TestRunPrintsVersion(t *testing.T) {
	if got := run([]string{"-version"}); got != 0 {
		t.Fatalf("run = %d, want 0", got)
	}
}
