package task

import (
	"context"
	"errors"
	"strings"

	"github.com/kmcrae/herald/internal/backend"
)

// Ask forwards a prompt to the configured backend and returns its answer.
// The backend is resolved once at construction, not per invocation.
type Ask struct {
	backend backend.Backend
}

// NewAsk returns the ask task bound to a backend.
func NewAsk(b backend.Backend) *Ask {
	return &Ask{backend: b}
}

func (*Ask) Name() string { return "ask" }

func (*Ask) Validate(in Input) error {
	switch {
	case in.Kind == InputText && strings.TrimSpace(in.Text) != "":
		return nil
	case in.Kind == InputText:
		return errors.New("prompt is empty")
	default:
		return errors.New("invalid input")
	}
}

func (a *Ask) Run(ctx context.Context, in Input) (Output, error) {
	if in.Kind != InputText {
		return NoOutput(), errors.New("invalid input")
	}

	answer, err := a.backend.Ask(ctx, in.Text)
	if err != nil {
		return NoOutput(), err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return NoOutput(), errors.New("backend returned empty output")
	}
	return TextOutput(answer), nil
}
