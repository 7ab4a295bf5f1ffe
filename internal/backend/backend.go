// Package backend provides the strategies that answer ask-task prompts. The
// concrete strategy is picked once at construction from configuration; it is
// never re-resolved per invocation.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kmcrae/herald/internal/config"
)

// ErrUnknown is returned when the configured backend name matches no
// registered strategy.
var ErrUnknown = errors.New("unknown ask backend")

// Backend answers free-form prompts on behalf of the ask task. Ask may block
// for the duration of a network call or subprocess run and must honor ctx.
type Backend interface {
	Name() string
	Ask(ctx context.Context, prompt string) (string, error)
}

// New resolves the configured backend. Selection happens exactly once, at
// startup; an unknown name is a fatal configuration error.
func New(cfg config.AskConfig) (Backend, error) {
	switch normalize(cfg.Backend) {
	case "", "codex":
		return newCLI("codex", cfg.CodexCommand, defaultCodexCommand), nil
	case "claude-code", "claude_code":
		return newCLI("claude code", cfg.ClaudeCommand, defaultClaudeCommand), nil
	case "openai":
		return newOpenAI(cfg)
	case "anthropic", "claude-api", "claude_api":
		return newAnthropic(cfg)
	default:
		return nil, fmt.Errorf("%w: %s (expected openai|anthropic|codex|claude-code)", ErrUnknown, cfg.Backend)
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
