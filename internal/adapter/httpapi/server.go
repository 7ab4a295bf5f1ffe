// Package httpapi exposes the engine over HTTP: message submission, event
// polling, and a health endpoint.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kmcrae/herald/internal/events"
	"github.com/kmcrae/herald/internal/log"
	"github.com/kmcrae/herald/internal/message"
)

// Handler is the engine surface the server needs.
type Handler interface {
	Handle(msg message.Message) message.Response
}

// QueueStats reports queue occupancy for the health endpoint.
type QueueStats interface {
	Len() int
	Cap() int
}

// Config holds HTTP server configuration.
type Config struct {
	Listen string
	// Token, when non-empty, is required as a bearer token on every /v1
	// request.
	Token string
}

// Server is the HTTP channel adapter. Responses to submitted messages come
// back asynchronously through the event feed; clients poll /v1/events with
// their last seen id.
type Server struct {
	config    Config
	handler   Handler
	stats     QueueStats
	hub       *events.Hub
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates the server. hub may not be nil; the event feed is the only way
// HTTP clients see results.
func New(config Config, h Handler, stats QueueStats, hub *events.Hub) *Server {
	return &Server{
		config:    config,
		handler:   h,
		stats:     stats,
		hub:       hub,
		logger:    log.WithComponent("http"),
		startedAt: time.Now(),
	}
}

// Run starts the listener and blocks until ctx is canceled or the server
// fails.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("http server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/v1/messages", s.handleMessage)
		r.Get("/v1/events", s.handleEvents)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authMiddleware enforces the bearer token when one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.Token)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if s.stats != nil {
		resp.QueueDepth = s.stats.Len()
		resp.QueueCapacity = s.stats.Cap()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleMessage handles POST /v1/messages. The response is the engine's
// immediate acknowledgement; the job result arrives on the event feed.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	channel := req.Channel
	if channel == "" {
		channel = "http:" + req.UserID
	}

	resp := s.handler.Handle(message.Message{
		UserID:  req.UserID,
		Channel: channel,
		Text:    req.Text,
	})
	s.writeJSON(w, http.StatusAccepted, messageResponse{
		Text:      resp.Text,
		Ephemeral: resp.Ephemeral,
	})
}

// handleEvents handles GET /v1/events?since=N, returning buffered events
// newer than the given id.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = v
	}

	evs := s.hub.Since(since)
	if evs == nil {
		evs = []events.Event{}
	}
	s.writeJSON(w, http.StatusOK, eventsResponse{Events: evs})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
