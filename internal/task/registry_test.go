package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type namedTask struct {
	name string
}

func (t *namedTask) Name() string         { return t.name }
func (t *namedTask) Validate(Input) error { return nil }
func (t *namedTask) Run(context.Context, Input) (Output, error) {
	return NoOutput(), nil
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	first := &namedTask{name: "ping"}
	if err := reg.Register(first); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := reg.Register(&namedTask{name: "ping"}); err == nil {
		t.Fatal("duplicate Register should fail")
	}

	// The first registration stays resolvable.
	got, ok := reg.Lookup("ping")
	if !ok || got != Task(first) {
		t.Fatal("first registration was not preserved")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register(&namedTask{name: ""}); err == nil {
		t.Fatal("empty name should fail")
	}
}

func TestRegistryLookupMissing(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if _, ok := reg.Lookup("nope"); ok {
		t.Fatal("expected miss")
	}
}

func TestRegistryConcurrentLookups(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register(&namedTask{name: "echo"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := reg.Lookup("echo"); !ok {
					t.Error("lookup miss for registered task")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPingRun(t *testing.T) {
	t.Parallel()

	p := NewPing()
	out, err := p.Run(context.Background(), EmptyInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Kind != OutputText || out.Text != "pong" {
		t.Fatalf("Run = %+v, want text %q", out, "pong")
	}
}

func TestEchoValidateAndRun(t *testing.T) {
	t.Parallel()

	e := NewEcho()
	if err := e.Validate(TextInput("hello")); err != nil {
		t.Fatalf("Validate(text): %v", err)
	}
	if err := e.Validate(TextInput("")); err == nil || err.Error() != "text is empty" {
		t.Fatalf("Validate(empty text) = %v, want %q", err, "text is empty")
	}
	if err := e.Validate(EmptyInput()); err == nil || err.Error() != "invalid input" {
		t.Fatalf("Validate(empty variant) = %v, want %q", err, "invalid input")
	}

	out, err := e.Run(context.Background(), TextInput("hello"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Text != "hello" {
		t.Fatalf("Run text = %q, want %q", out.Text, "hello")
	}
}

type fakeBackend struct {
	answer string
	err    error
	asked  string
}

func (f *fakeBackend) Name() string { return "fake" }
func (f *fakeBackend) Ask(_ context.Context, prompt string) (string, error) {
	f.asked = prompt
	return f.answer, f.err
}

func TestAskRunForwardsPrompt(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{answer: "  42  "}
	a := NewAsk(fb)

	out, err := a.Run(context.Background(), TextInput("meaning of life"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fb.asked != "meaning of life" {
		t.Fatalf("backend saw prompt %q", fb.asked)
	}
	if out.Text != "42" {
		t.Fatalf("Run text = %q, want trimmed %q", out.Text, "42")
	}
}

func TestAskRunEmptyBackendOutput(t *testing.T) {
	t.Parallel()

	a := NewAsk(&fakeBackend{answer: "   "})
	_, err := a.Run(context.Background(), TextInput("hi"))
	if err == nil || !strings.Contains(err.Error(), "empty output") {
		t.Fatalf("Run = %v, want empty-output error", err)
	}
}

func TestAskValidate(t *testing.T) {
	t.Parallel()

	a := NewAsk(&fakeBackend{})
	if err := a.Validate(TextInput("hi")); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := a.Validate(TextInput("   ")); err == nil || err.Error() != "prompt is empty" {
		t.Fatalf("Validate(blank) = %v, want %q", err, "prompt is empty")
	}
	if err := a.Validate(EmptyInput()); err == nil {
		t.Fatal("Validate(empty variant) should fail")
	}
}

func TestAskRunPropagatesBackendError(t *testing.T) {
	t.Parallel()

	a := NewAsk(&fakeBackend{err: errors.New("backend down")})
	_, err := a.Run(context.Background(), TextInput("hi"))
	if err == nil || err.Error() != "backend down" {
		t.Fatalf("Run = %v, want backend error", err)
	}
}
