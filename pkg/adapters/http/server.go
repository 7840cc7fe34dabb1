package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Engine is what the HTTP server needs from the dialogue engine.
type Engine interface {
	ports.Engine
	Template(ctx context.Context, dialogue string) (*domain.Template, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine  Engine
	streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// TurnRequest is the body of POST /dialogues/{dialogue}/turns.
type TurnRequest struct {
	ClientID  string `json:"client_id"`
	Utterance string `json:"utterance"`
}

// StateResponse describes a stored dialogue without running a turn.
type StateResponse struct {
	Dialogue  string           `json:"dialogue"`
	ClientID  string           `json:"client_id"`
	Active    bool             `json:"active"`
	TimedOut  bool             `json:"timed_out"`
	Focus     string           `json:"focus,omitempty"`
	Snapshot  *domain.Snapshot `json:"snapshot,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}

// GraphNode is one resource of a dialogue definition.
type GraphNode struct {
	Name     string      `json:"name"`
	Kind     domain.Kind `json:"kind"`
	Requires []string    `json:"requires,omitempty"`
	Dynamic  bool        `json:"dynamic,omitempty"`
}

// NewHandler builds the router.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/dialogues", func(r chi.Router) {
		r.Get("/", s.ListDialogues)
		r.Route("/{dialogue}", func(r chi.Router) {
			r.Get("/graph", s.GetGraph)
			r.Post("/turns", s.PostTurn)
			r.Get("/clients/{client}", s.GetState)
			r.Delete("/clients/{client}", s.DeleteState)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostTurn runs one turn and broadcasts the resulting changes to the
// client's event stream.
func (s *Server) PostTurn(w http.ResponseWriter, r *http.Request) {
	dialogue := chi.URLParam(r, "dialogue")

	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if body.ClientID == "" {
		s.fail(w, r, fmt.Errorf("%w: client_id is required", errBadRequest))
		return
	}

	reply, err := s.engine.Process(r.Context(), body.ClientID, dialogue, body.Utterance)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if reply.Changes != nil {
		if raw, err := json.Marshal(reply.Changes); err == nil {
			s.streams.Broadcast(body.ClientID, string(raw))
		}
	}
	s.write(w, http.StatusOK, reply)
}

// GetState reports the stored dialogue of a client.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	dialogue := chi.URLParam(r, "dialogue")
	client := chi.URLParam(r, "client")

	m, err := s.engine.Inspect(r.Context(), client, dialogue)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, describe(client, m))
}

func describe(client string, m *dsm.Manager) StateResponse {
	resp := StateResponse{
		Dialogue:  m.Name(),
		ClientID:  client,
		Active:    m.Active(),
		TimedOut:  m.TimedOut(),
		CheckedAt: time.Now().UTC(),
	}
	if m.Active() && !m.TimedOut() {
		resp.Focus = m.CurrentResource().Name
		resp.Snapshot = m.Snapshot()
	}
	return resp
}

// DeleteState discards the stored dialogue of a client.
func (s *Server) DeleteState(w http.ResponseWriter, r *http.Request) {
	dialogue := chi.URLParam(r, "dialogue")
	client := chi.URLParam(r, "client")

	if err := s.engine.Reset(r.Context(), client, dialogue); err != nil {
		s.fail(w, r, err)
		return
	}
	if raw, err := closedEvent(dialogue); err == nil {
		s.streams.Broadcast(client, raw)
	}
	w.WriteHeader(http.StatusNoContent)
}

// closedEvent is the stream message sent when a client's dialogue is reset.
func closedEvent(dialogue string) (string, error) {
	raw, err := json.Marshal(domain.SnapshotDiff{DialogueName: dialogue, Closed: true})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// GetGraph returns the resources of a dialogue definition.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.engine.Template(r.Context(), chi.URLParam(r, "dialogue"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nodes := make([]GraphNode, 0, len(tmpl.Resources)+len(tmpl.DynamicResources))
	for _, res := range tmpl.Resources {
		nodes = append(nodes, GraphNode{Name: res.Name, Kind: res.Kind, Requires: res.Requires})
	}
	for _, res := range tmpl.DynamicResources {
		nodes = append(nodes, GraphNode{Name: res.Name, Kind: res.Kind, Requires: res.Requires, Dynamic: true})
	}
	s.write(w, http.StatusOK, nodes)
}

// ListDialogues returns the registered dialogue names.
func (s *Server) ListDialogues(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, s.engine.Dialogues())
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": parley.Version,
	})
}

// SubscribeEvents streams snapshot diffs for ?client_id=, or template
// reloads when no client is given.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client := r.URL.Query().Get("client_id")
	var reloads <-chan struct{}
	var messages <-chan string
	if client == "" {
		events, err := s.engine.Watch(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		reloads = events
		s.logger.Info("SSE: subscribed to template reloads")
	} else {
		ch, cancel := s.streams.Subscribe(client)
		defer cancel()
		messages = ch
		s.logger.Info("SSE: subscribed to dialogue changes", "client_id", client)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-reloads:
			if !ok {
				return
			}
			fmt.Fprint(w, "data: reload\n\n")
			flusher.Flush()
		case msg, ok := <-messages:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

var errBadRequest = errors.New("bad request")

func status(err error) int {
	switch {
	case errors.Is(err, errBadRequest), runner.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDialogueNotFound), errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "status", code, "err", err)
	}
	s.write(w, code, map[string]string{"error": err.Error()})
}

func (s *Server) write(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

var _ Engine = (*parley.Engine)(nil)
