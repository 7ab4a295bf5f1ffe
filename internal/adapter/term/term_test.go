package term

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

func TestSinkFormatsResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := &Sink{out: &buf}

	job := queue.Job{ID: "j1", TaskName: "echo", ChannelID: "term"}
	if err := s.Deliver(job, message.Response{Text: "hello"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := buf.String(); got != "[echo] hello\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestSinkHandlesMultilineText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := &Sink{out: &buf}

	job := queue.Job{ID: "j1", TaskName: "ask"}
	if err := s.Deliver(job, message.Response{Text: "line one\nline two"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "[ask] line one\n") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestNewSetsUserID(t *testing.T) {
	t.Parallel()

	r := New(nil)
	if r.userID == "" {
		t.Fatal("empty user id")
	}
}
