package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kmcrae/herald/internal/events"
	"github.com/kmcrae/herald/internal/message"
	"github.com/kmcrae/herald/internal/queue"
)

type fakeHandler struct {
	last message.Message
	resp message.Response
}

func (f *fakeHandler) Handle(msg message.Message) message.Response {
	f.last = msg
	return f.resp
}

type fakeStats struct {
	depth, capacity int
}

func (f fakeStats) Len() int { return f.depth }
func (f fakeStats) Cap() int { return f.capacity }

func newTestServer(token string) (*Server, *fakeHandler, *events.Hub) {
	h := &fakeHandler{resp: message.Response{Text: "working...", Ephemeral: true}}
	hub := events.NewHub()
	s := New(Config{Listen: "127.0.0.1:0", Token: token}, h, fakeStats{depth: 2, capacity: 128}, hub)
	return s, h, hub
}

func TestHealthzIsOpen(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer("secret")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body healthzResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, 2, body.QueueDepth)
	require.Equal(t, 128, body.QueueCapacity)
}

func TestAuthRequiredWhenTokenConfigured(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer("secret")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/events")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	req.Header.Set("Authorization", "Bearer secret")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestAuthSkippedWithoutToken(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer("")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/events")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestMessageSubmission(t *testing.T) {
	t.Parallel()

	s, h, _ := newTestServer("")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/v1/messages", "application/json",
		strings.NewReader(`{"user_id":"u1","text":"!echo hi"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	var body messageResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, "working...", body.Text)
	require.True(t, body.Ephemeral)

	require.Equal(t, "u1", h.last.UserID)
	require.Equal(t, "http:u1", h.last.Channel)
	require.Equal(t, "!echo hi", h.last.Text)
}

func TestMessageValidation(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestServer("")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing user_id", body: `{"text":"hi"}`},
		{name: "missing text", body: `{"user_id":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := http.Post(ts.URL+"/v1/messages", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			res.Body.Close()
			require.Equal(t, http.StatusBadRequest, res.StatusCode)
		})
	}
}

func TestEventsSinceFilter(t *testing.T) {
	t.Parallel()

	s, _, hub := newTestServer("")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	hub.Publish(events.TypeJobSubmitted, map[string]any{"job_id": "a"})
	hub.Publish(events.TypeJobCompleted, map[string]any{"job_id": "a"})

	res, err := http.Get(ts.URL + "/v1/events?since=1")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body eventsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Events, 1)
	require.Equal(t, events.TypeJobCompleted, body.Events[0].Type)

	res, err = http.Get(ts.URL + "/v1/events?since=bogus")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHubSinkPublishesResult(t *testing.T) {
	t.Parallel()

	hub := events.NewHub()
	sink := NewHubSink(hub)

	job := queue.Job{ID: "j1", TaskName: "echo", UserID: "u1", ChannelID: "http:u1"}
	require.NoError(t, sink.Deliver(job, message.Response{Text: "hi"}))

	evs := hub.Since(0)
	require.Len(t, evs, 1)
	require.Equal(t, events.TypeJobResult, evs[0].Type)
	require.Equal(t, "j1", evs[0].Data["job_id"])
	require.Equal(t, "hi", evs[0].Data["text"])
}
