package discord

import (
	"strings"
	"testing"

	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

func TestDeliverRejectsForeignChannels(t *testing.T) {
	t.Parallel()

	b := &Bot{}
	err := b.Deliver(queue.Job{ID: "j1", ChannelID: "telegram:42"}, message.Response{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "not a discord channel") {
		t.Fatalf("err = %v", err)
	}
}
