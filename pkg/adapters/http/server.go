package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/grasp"
	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/internal/presentation/graph"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/observability"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/aretw0/grasp/pkg/wire"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// MaxBodySize bounds the request bodies accepted by the command endpoints.
const MaxBodySize = 64 << 10

var (
	specOnce sync.Once
	specDoc  *openapi3.T
	specErr  error
)

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			specErr = fmt.Errorf("failed to load openapi spec: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = fmt.Errorf("invalid openapi spec: %w", err)
			return
		}
		specDoc = doc
	})
	return specDoc, specErr
}

// Server exposes a node over HTTP.
type Server struct {
	Node     ports.Commander
	Events   *observability.Tap
	Gatherer prometheus.Gatherer
	Health   func(ctx context.Context) error
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithEvents enables GET /events, streaming everything the tap sees.
func WithEvents(tap *observability.Tap) Option {
	return func(s *Server) {
		s.Events = tap
	}
}

// WithMetrics enables GET /metrics for the given gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithHealthCheck makes GET /health report 503 while check fails.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.Health = check
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the node.
func NewHandler(node ports.Commander, opts ...Option) http.Handler {
	s := &Server{Node: node}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/state", s.GetState)
	r.Get("/graph", s.GetGraph)
	r.Post("/pick", s.Pick)
	r.Post("/handoff", s.Handoff)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/metrics", s.GetMetrics)

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		if err := s.Health(r.Context()); err != nil {
			s.Logger.Warn("Health check failed", "err", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "grasp-http",
		"version":     strings.TrimSpace(grasp.Version),
		"api_version": apiVersion,
	})
}

// GetSpec serves the embedded OpenAPI document.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Write(rawSpec)
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Node.State())
}

// GetGraph serves the state machine as a Mermaid diagram with the current state highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(&graph.Overlay{Current: s.Node.State()}))
}

// Pick handles the POST /pick request. The body is {"label": "..."} or the bare label.
func (s *Server) Pick(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Pick: Failed to read body", "err", err)
		return
	}
	if len(body) > MaxBodySize {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	pick, err := wire.DecodePick(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid pick: %v", err), http.StatusBadRequest)
		s.Logger.Warn("Pick: Invalid request body", "err", err)
		return
	}

	s.submit(w, r, pick)
}

// Handoff handles the POST /handoff request. Any body is ignored.
func (s *Server) Handoff(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, domain.Handoff{})
}

// GetMetrics serves Prometheus metrics when a gatherer is attached.
func (s *Server) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if s.Gatherer == nil {
		http.Error(w, "Metrics not enabled", http.StatusNotFound)
		return
	}
	promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional channel query parameter filters by notification channel.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	if s.Events == nil {
		http.Error(w, "Events not enabled", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	filter, err := parseChannels(r.URL.Query().Get("channel"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := s.Events.Subscribe()
	defer cancel()

	s.Logger.Info("SSE: Client subscribed", "remote", r.RemoteAddr)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: Client disconnected", "remote", r.RemoteAddr)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if len(filter) > 0 && !filter[e.Notification.Channel] {
				continue
			}
			data, err := json.Marshal(eventView{
				Topic:        e.Topic,
				notification: view(e.Notification),
			})
			if err != nil {
				s.Logger.Error("SSE: Failed to encode event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Notification.Channel, data)
			flusher.Flush()
		}
	}
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, cmd domain.Command) {
	res, err := s.Node.Submit(r.Context(), cmd)
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotHolding):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEmptyLabel):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, domain.ErrNodeStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		s.Logger.Warn("Command abandoned", "command", cmd.Kind(), "err", err)
		return
	default:
		http.Error(w, fmt.Sprintf("Command error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("Command failed", "command", cmd.Kind(), "err", err)
		return
	}

	resp := commandResponse{
		Command:       res.Command,
		State:         res.State,
		Notifications: make([]notification, len(res.Notifications)),
	}
	for i, n := range res.Notifications {
		resp.Notifications[i] = view(n)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "err", err)
	}
}

func parseChannels(raw string) (map[domain.Channel]bool, error) {
	if raw == "" {
		return nil, nil
	}
	filter := make(map[domain.Channel]bool)
	for _, part := range strings.Split(raw, ",") {
		ch := domain.Channel(strings.TrimSpace(part))
		if !ch.Valid() {
			return nil, fmt.Errorf("unknown channel %q", ch)
		}
		filter[ch] = true
	}
	return filter, nil
}

// -- Views --

type notification struct {
	domain.Notification
	Text string `json:"text"`
}

type eventView struct {
	Topic string `json:"topic"`
	notification
}

type commandResponse struct {
	Command       domain.CommandKind `json:"command"`
	State         domain.HoldState   `json:"state"`
	Notifications []notification     `json:"notifications"`
	Error         string             `json:"error,omitempty"`
}

func view(n domain.Notification) notification {
	return notification{Notification: n, Text: wire.FormatStatus(n)}
}
