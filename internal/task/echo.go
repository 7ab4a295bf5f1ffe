package task

import (
	"context"
	"errors"
)

// Echo returns its text input unchanged.
type Echo struct{}

// NewEcho returns the echo task.
func NewEcho() *Echo {
	return &Echo{}
}

func (*Echo) Name() string { return "echo" }

func (*Echo) Validate(in Input) error {
	switch {
	case in.Kind == InputText && in.Text != "":
		return nil
	case in.Kind == InputText:
		return errors.New("text is empty")
	default:
		return errors.New("invalid input")
	}
}

func (*Echo) Run(_ context.Context, in Input) (Output, error) {
	if in.Kind != InputText {
		return NoOutput(), errors.New("invalid input")
	}
	return TextOutput(in.Text), nil
}
