package backend

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	defaultCodexCommand  = "codex exec --skip-git-repo-check"
	defaultClaudeCommand = "claude -p"

	// maxCaptureBytes caps captured subprocess output.
	maxCaptureBytes = 64 * 1024
)

// cli shells out to a local command-line agent. The prompt is appended as a
// single quoted argument.
type cli struct {
	name    string
	command string
}

func newCLI(name, command, fallback string) *cli {
	if strings.TrimSpace(command) == "" {
		command = fallback
	}
	return &cli{name: name, command: command}
}

func (b *cli) Name() string { return b.name }

func (b *cli) Ask(ctx context.Context, prompt string) (string, error) {
	full := b.command + " " + shellQuote(prompt)
	cmd := exec.CommandContext(ctx, "sh", "-c", full)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(truncate(stderr.String()))
		if msg == "" {
			return "", fmt.Errorf("%s command failed: %w", b.name, err)
		}
		return "", fmt.Errorf("%s command failed: %s", b.name, msg)
	}

	if out := strings.TrimSpace(truncate(stdout.String())); out != "" {
		return out, nil
	}
	// Some CLI agents report on stderr even on success.
	return strings.TrimSpace(truncate(stderr.String())), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func truncate(s string) string {
	if len(s) > maxCaptureBytes {
		return s[:maxCaptureBytes]
	}
	return s
}
