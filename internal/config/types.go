package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses Go duration strings from both YAML values and environment
// overrides.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := time.ParseDuration(strings.TrimSpace(n.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", n.Value, err)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler for env overrides.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// Config is the complete herald configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Engine   EngineConfig   `yaml:"engine"`
	Ask      AskConfig      `yaml:"ask"`
	Telegram TelegramConfig `yaml:"telegram,omitempty"`
	Discord  DiscordConfig  `yaml:"discord,omitempty"`
	Slack    SlackConfig    `yaml:"slack,omitempty"`
	HTTP     HTTPConfig     `yaml:"http,omitempty"`
}

// ServiceConfig defines process-wide settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level" env:"HERALD_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"HERALD_LOG_FORMAT"`
}

// EngineConfig defines dispatch engine settings.
type EngineConfig struct {
	// Workers is the fixed worker count; zero selects the pool default.
	Workers int `yaml:"workers" env:"HERALD_WORKERS"`
	// QueueSize is the job queue capacity; zero selects the queue default.
	QueueSize       int      `yaml:"queue_size" env:"HERALD_QUEUE_SIZE"`
	DeliverTimeout  Duration `yaml:"deliver_timeout" env:"HERALD_DELIVER_TIMEOUT"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" env:"HERALD_SHUTDOWN_TIMEOUT"`
	// UserRate caps inbound messages per user per second; zero disables
	// rate limiting entirely.
	UserRate  float64 `yaml:"user_rate" env:"HERALD_USER_RATE"`
	UserBurst int     `yaml:"user_burst" env:"HERALD_USER_BURST"`
}

// AskConfig selects and configures the backend answering the ask task.
type AskConfig struct {
	// Backend is one of: openai, anthropic, codex, claude-code.
	Backend        string `yaml:"backend" env:"HERALD_ASK_BACKEND"`
	OpenAIKey      string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel    string `yaml:"openai_model" env:"OPENAI_MODEL"`
	AnthropicKey   string `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `yaml:"anthropic_model" env:"ANTHROPIC_MODEL"`
	CodexCommand   string `yaml:"codex_command" env:"HERALD_CODEX_CMD"`
	ClaudeCommand  string `yaml:"claude_code_command" env:"HERALD_CLAUDE_CODE_CMD"`
}

// TelegramConfig configures the Telegram adapter.
type TelegramConfig struct {
	Token string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
}

// DiscordConfig configures the Discord adapter.
type DiscordConfig struct {
	Token string `yaml:"token" env:"DISCORD_TOKEN"`
}

// SlackConfig configures the Slack Socket Mode adapter.
type SlackConfig struct {
	AppToken string `yaml:"app_token" env:"SLACK_APP_TOKEN"`
	BotToken string `yaml:"bot_token" env:"SLACK_BOT_TOKEN"`
}

// HTTPConfig configures the HTTP channel adapter.
type HTTPConfig struct {
	Listen string `yaml:"listen" env:"HERALD_HTTP_LISTEN"`
	// Token, when set, is required as a bearer token on every request.
	Token string `yaml:"token" env:"HERALD_HTTP_TOKEN"`
}

// Defaults returns a Config with working defaults; herald runs without any
// config file at all.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "herald",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Engine: EngineConfig{
			Workers:         4,
			QueueSize:       128,
			DeliverTimeout:  Duration(10 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Ask: AskConfig{
			Backend: "codex",
		},
		HTTP: HTTPConfig{
			Listen: "127.0.0.1:8130",
		},
	}
}
