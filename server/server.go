// Package server exposes the pipeline runner over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/logging"
	"github.com/bioseqlab/crisprflow/protocol"
	"github.com/bioseqlab/crisprflow/runner"
)

// messageRequest is the POST /sessions/{id}/messages body.
type messageRequest struct {
	Message string `json:"message"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// Metrics aggregates the Prometheus instruments of the server.
type Metrics struct {
	Turns        *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
}

// NewMetrics constructs and registers the server metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crisprflow_turns_total",
				Help: "Completed turns by workflow and status.",
			},
			[]string{"workflow", "status"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crisprflow_turn_duration_seconds",
				Help:    "Turn handling latency by workflow.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"workflow"},
		),
	}
	reg.MustRegister(m.Turns, m.TurnDuration)
	return m
}

// Options configures the HTTP handler.
type Options struct {
	// Logger for request diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Registry receives the server metrics. Defaults to a private registry.
	Registry *prometheus.Registry
}

// Server routes HTTP requests onto the turn loop and the session store.
type Server struct {
	runner  *runner.Runner
	store   core.SessionStore
	logger  logging.Logger
	metrics *Metrics
	reg     *prometheus.Registry
}

// NewHandler builds the chi router over the runner and session store.
func NewHandler(r *runner.Runner, store core.SessionStore, optFns ...func(o *Options)) http.Handler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		runner:  r,
		store:   store,
		logger:  opts.Logger,
		metrics: NewMetrics(opts.Registry),
		reg:     opts.Registry,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	mux.Get("/healthz", s.handleHealth)
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	mux.Route("/sessions/{sessionID}", func(mux chi.Router) {
		mux.Post("/messages", s.handleMessage)
		mux.Get("/", s.handleGetSession)
		mux.Get("/protocol", s.handleGetProtocol)
	})

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMessage feeds one user message into the turn loop.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	start := time.Now()
	result, err := s.runner.HandleTurn(r.Context(), sessionID, req.Message)
	workflow := result.WorkflowID
	if workflow == "" {
		// Turns that fail before a workflow resolves share one series.
		workflow = "unknown"
	}
	s.metrics.Turns.WithLabelValues(workflow, string(result.Status)).Inc()
	s.metrics.TurnDuration.WithLabelValues(workflow).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("turn failed", "session_id", sessionID, "error", err)
		// The result already carries the opaque user-facing message.
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetSession returns the persisted state snapshot.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		s.logger.Error("session load failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session load failed"})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleGetProtocol renders the bench protocol for the session's current
// design state.
func (s *Server) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	state, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		s.logger.Error("session load failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "session load failed"})
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(protocol.Generate(state)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
