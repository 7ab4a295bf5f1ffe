package task

import "context"

// Ping answers "pong". It accepts any input.
type Ping struct{}

// NewPing returns the ping task.
func NewPing() *Ping {
	return &Ping{}
}

func (*Ping) Name() string { return "ping" }

func (*Ping) Validate(Input) error { return nil }

func (*Ping) Run(context.Context, Input) (Output, error) {
	return TextOutput("pong"), nil
}
