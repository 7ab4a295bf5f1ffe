// Package router maps incoming message text to a task name and input.
package router

import (
	"errors"
	"strings"

	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/task"
)

// Route is the outcome of routing one message: which task to run and with
// what input.
type Route struct {
	TaskName string
	Input    task.Input
}

// Router decides what a message means. A nil route with a nil error means
// the message carries nothing actionable and should be ignored without a
// reply. A non-nil error is user-facing usage feedback.
type Router interface {
	Route(msg message.Message) (*Route, error)
}

// Prefix routes on a leading command prefix and falls back to the ask task
// for plain text.
type Prefix struct{}

// NewPrefix returns the standard command router.
func NewPrefix() *Prefix {
	return &Prefix{}
}

// Route implements the command grammar:
//
//	!ping           -> ping, no input
//	!echo <text>    -> echo with the text
//	!ask <prompt>   -> ask with the prompt
//	anything else   -> ask with the whole message
//	blank           -> no route, no error
//
// Missing arguments after !echo or !ask yield a usage error.
func (p *Prefix) Route(msg message.Message) (*Route, error) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return nil, nil
	}

	if text == "!ping" {
		return &Route{TaskName: "ping", Input: task.EmptyInput()}, nil
	}
	if rest, ok := strings.CutPrefix(text, "!echo"); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return nil, errors.New("usage: !echo <text>")
		}
		return &Route{TaskName: "echo", Input: task.TextInput(rest)}, nil
	}
	if rest, ok := strings.CutPrefix(text, "!ask"); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return nil, errors.New("usage: !ask <prompt>")
		}
		return &Route{TaskName: "ask", Input: task.TextInput(rest)}, nil
	}

	return &Route{TaskName: "ask", Input: task.TextInput(text)}, nil
}
