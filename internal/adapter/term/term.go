// Package term provides the interactive terminal channel: a readline REPL
// feeding the engine and a sink printing results back to the same terminal.
package term

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"
	"sync"

	"github.com/chzyer/readline"

	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

// Handler is the engine surface the REPL needs.
type Handler interface {
	Handle(msg message.Message) message.Response
}

// REPL reads lines from the terminal and hands them to the engine.
type REPL struct {
	handler Handler
	userID  string
	logger  *slog.Logger
}

// New creates a REPL. The user id is the local username, or "local" when it
// cannot be determined.
func New(h Handler) *REPL {
	userID := "local"
	if u, err := user.Current(); err == nil && u.Username != "" {
		userID = u.Username
	}
	return &REPL{
		handler: h,
		userID:  userID,
		logger:  log.WithComponent("term"),
	}
}

// Run blocks reading lines until EOF, a lone interrupt, or ctx cancellation.
// Ctrl-C on a non-empty line clears it; on an empty line it exits.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.New("herald> ")
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	r.logger.Info("terminal ready", "user_id", r.userID)
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if len(line) == 0 {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read line: %w", err)
		}

		resp := r.handler.Handle(message.Message{
			UserID:  r.userID,
			Channel: "term",
			Text:    line,
		})
		if resp.Text != "" {
			fmt.Fprintln(rl.Stdout(), resp.Text)
		}
	}
}

// Sink prints finished results to the terminal, prefixed with the task name
// so interleaved output stays readable.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSink returns a sink writing to stdout.
func NewSink() *Sink {
	return &Sink{out: os.Stdout}
}

// Deliver implements engine.Sink.
func (s *Sink) Deliver(job queue.Job, resp message.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "[%s] %s\n", job.TaskName, resp.Text)
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
