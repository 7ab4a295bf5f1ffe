// Package task defines the executable unit contract, its input/output
// variants, and the registry that resolves tasks by name.
package task

import "context"

// InputKind discriminates the Input variants.
type InputKind int

const (
	// InputEmpty marks an input carrying no payload.
	InputEmpty InputKind = iota
	// InputText marks an input carrying free-form text.
	InputText
)

// Input is the immutable value carried into a job.
type Input struct {
	Kind InputKind
	Text string
}

// EmptyInput returns the payload-free input variant.
func EmptyInput() Input {
	return Input{Kind: InputEmpty}
}

// TextInput returns a text-carrying input variant.
func TextInput(text string) Input {
	return Input{Kind: InputText, Text: text}
}

// OutputKind discriminates the Output variants.
type OutputKind int

const (
	// OutputNone marks a run that produced no payload.
	OutputNone OutputKind = iota
	// OutputText marks a run that produced text.
	OutputText
)

// Output is what a task run produces.
type Output struct {
	Kind OutputKind
	Text string
}

// NoOutput returns the payload-free output variant.
func NoOutput() Output {
	return Output{Kind: OutputNone}
}

// TextOutput returns a text-carrying output variant.
func TextOutput(text string) Output {
	return Output{Kind: OutputText, Text: text}
}

// Task is a named unit of executable logic. Validate is always called before
// Run; a validation failure is terminal and Run is never invoked for that
// job. Run receives the input by value and must not retain it. Error strings
// returned from either method are surfaced to users verbatim.
type Task interface {
	Name() string
	Validate(in Input) error
	Run(ctx context.Context, in Input) (Output, error)
}
