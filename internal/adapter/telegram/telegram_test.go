package telegram

import (
	"strings"
	"testing"

	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

func TestDeliverRejectsForeignChannels(t *testing.T) {
	t.Parallel()

	b := &Bot{}
	err := b.Deliver(queue.Job{ID: "j1", ChannelID: "term"}, message.Response{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "not a telegram channel") {
		t.Fatalf("err = %v", err)
	}
}

func TestDeliverRejectsMalformedChatID(t *testing.T) {
	t.Parallel()

	b := &Bot{}
	err := b.Deliver(queue.Job{ID: "j1", ChannelID: "telegram:abc"}, message.Response{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "invalid telegram channel") {
		t.Fatalf("err = %v", err)
	}
}
