package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "herald", cfg.Service.Name)
	require.Equal(t, 4, cfg.Engine.Workers)
	require.Equal(t, 128, cfg.Engine.QueueSize)
	require.Equal(t, 10*time.Second, cfg.Engine.DeliverTimeout.Std())
	require.Equal(t, "codex", cfg.Ask.Backend)
	require.Zero(t, cfg.Engine.UserRate)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "herald.yaml")
	body := `
service:
  log_level: debug
engine:
  workers: 2
  queue_size: 16
  deliver_timeout: 250ms
  shutdown_timeout: 3s
ask:
  backend: openai
  openai_model: gpt-4o-mini
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("HERALD_WORKERS", "8")
	t.Setenv("HERALD_ASK_BACKEND", "anthropic")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Service.LogLevel)
	require.Equal(t, 16, cfg.Engine.QueueSize)
	require.Equal(t, 250*time.Millisecond, cfg.Engine.DeliverTimeout.Std())
	require.Equal(t, 3*time.Second, cfg.Engine.ShutdownTimeout.Std())

	// Environment wins over the file.
	require.Equal(t, 8, cfg.Engine.Workers)
	require.Equal(t, "anthropic", cfg.Ask.Backend)
	require.Equal(t, "gpt-4o-mini", cfg.Ask.OpenAIModel)
}

func TestLoadDirectoryResolvesHeraldYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "herald.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: 3\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Engine.Workers)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"negative workers": "engine:\n  workers: -1\n",
		"bad duration":     "engine:\n  deliver_timeout: soon\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
