package httpapi

import (
	"github.com/kmcrae/herald/internal/events"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

// HubSink publishes finished results to the event hub instead of pushing
// them anywhere. HTTP clients and daemon mode consume results by polling
// the event feed.
type HubSink struct {
	hub *events.Hub
}

// NewHubSink returns a sink backed by hub.
func NewHubSink(hub *events.Hub) *HubSink {
	return &HubSink{hub: hub}
}

// Deliver implements engine.Sink.
func (s *HubSink) Deliver(job queue.Job, resp message.Response) error {
	s.hub.Publish(events.TypeJobResult, map[string]any{
		"job_id":  job.ID,
		"task":    job.TaskName,
		"user_id": job.UserID,
		"channel": job.ChannelID,
		"text":    resp.Text,
	})
	return nil
}
