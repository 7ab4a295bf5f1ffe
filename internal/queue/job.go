package queue

import (
	"time"

	"github.com/kmcrae/herald/internal/task"
)

// Job is one unit of routed, validated work submitted for asynchronous
// execution. The engine creates it with a fresh unique id; it is immutable
// afterwards. Ownership passes from the queue to exactly one worker, which
// executes it exactly once.
type Job struct {
	ID        string
	TaskName  string
	Input     task.Input
	UserID    string
	ChannelID string
	CreatedAt time.Time
}
