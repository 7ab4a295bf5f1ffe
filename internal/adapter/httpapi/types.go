package httpapi

import "github.com/kmcrae/herald/internal/events"

type messageRequest struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
}

type messageResponse struct {
	Text      string `json:"text,omitempty"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
}

type healthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

type eventsResponse struct {
	Events []events.Event `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}
