package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"user-events/internal/broker"
	"user-events/internal/event"
	"user-events/pkg/logger"
)

// StatusClientClosedRequest reports a request abandoned by the client
// while the publish was in flight (nginx convention).
const StatusClientClosedRequest = 499

const (
	defaultQueryLimit = 100
	maxQueryLimit     = 1000
)

// EventPublisher is the write side of the pipeline as the endpoint sees it.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.UserEvent) (broker.Ack, error)
}

// EventReader is the read side, backed by the recent-event store.
type EventReader interface {
	Recent(limit int) []event.UserEvent
	Len() int
}

type Server struct {
	Publisher EventPublisher
	Store     EventReader
	Metrics   *broker.Metrics
}

func NewServer(pub EventPublisher, store EventReader, metrics *broker.Metrics) *Server {
	return &Server{Publisher: pub, Store: store, Metrics: metrics}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Wrap all handlers with request ID middleware
	mux.Handle("/events", RequestIDMiddleware(http.HandlerFunc(s.handleEvents)))
	mux.Handle("/health", RequestIDMiddleware(http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", RequestIDMiddleware(http.HandlerFunc(s.handleMetrics)))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleIngest(w, r)
	case http.MethodGet:
		s.handleQuery(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		logger.Get().Warnw("request rejected",
			"method", r.Method, "path", r.URL.Path, "status", http.StatusMethodNotAllowed,
		)
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rid := GetRequestID(r.Context())
	log := logger.Get().With("request_id", rid)

	var req event.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		log.Warnw("invalid JSON body", "error", err, "status", http.StatusBadRequest)
		return
	}

	ev, err := event.Normalize(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		log.Warnw("validation failed", "error", err, "status", http.StatusBadRequest)
		return
	}

	ack, err := s.Publisher.Publish(r.Context(), ev)
	if err != nil {
		if errors.Is(err, broker.ErrCanceled) {
			w.WriteHeader(StatusClientClosedRequest)
			log.Infow("client abandoned request",
				"user_id", ev.UserID, "type", ev.Type, "status", StatusClientClosedRequest,
			)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to enqueue event")
		log.Errorw("failed to publish event", "error", err, "status", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	log.Infow("event accepted",
		"user_id", ev.UserID,
		"type", ev.Type,
		"partition", ack.Partition,
		"offset", ack.Offset,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	rid := GetRequestID(r.Context())
	log := logger.Get().With("request_id", rid)

	limit := defaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	events := s.Store.Recent(limit)
	if events == nil {
		events = []event.UserEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)

	log.Debugw("recent events served", "limit", limit, "count", len(events))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rid := GetRequestID(r.Context())
	log := logger.Get().With("request_id", rid)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"healthy": true})

	log.Debugw("health check", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	rid := GetRequestID(r.Context())
	log := logger.Get().With("request_id", rid)

	metrics := map[string]interface{}{
		"events_published": s.Metrics.Published(),
		"publish_failures": s.Metrics.PublishFailed(),
		"events_consumed":  s.Metrics.Consumed(),
		"records_skipped":  s.Metrics.Skipped(),
		"consume_errors":   s.Metrics.ConsumeErrors(),
		"store_size":       s.Store.Len(),
		"uptime_seconds":   int(time.Since(s.Metrics.StartTime()).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(metrics)

	log.Debugw("metrics requested", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
