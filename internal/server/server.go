// Package server exposes the generation pipeline over HTTP and
// WebSocket, with lifecycle management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lainlives/lainllm-go/internal/knowledge"
	"github.com/lainlives/lainllm-go/internal/llm"
	"github.com/lainlives/lainllm-go/internal/metrics"
	"github.com/lainlives/lainllm-go/internal/models"
	"github.com/lainlives/lainllm-go/internal/pipeline"
)

// Deps are the server's collaborators.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Backend      knowledge.Backend
	Collector    *metrics.Collector
	ModelName    string
	EmbedModel   string
	GenConfig    llm.GenerationConfig
	Version      string
}

// Server wraps the HTTP server with dependencies and lifecycle
// management.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// New creates a server listening on the given port.
func New(port string, deps Deps, logger *slog.Logger) *Server {
	s := &Server{deps: deps, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           LoggingMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the configured handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr, "version", s.deps.Version)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// generateRequest is the wire shape of a generation call.
type generateRequest struct {
	Message       string `json:"message"`
	SenderID      string `json:"sender_id,omitempty"`
	IncludeMemory *bool  `json:"include_memory,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	// Memory is on unless explicitly disabled.
	includeMemory := req.IncludeMemory == nil || *req.IncludeMemory

	result := s.deps.Orchestrator.Generate(r.Context(), pipeline.Request{
		Message: models.Message{
			Text:      req.Message,
			SenderID:  req.SenderID,
			Timestamp: time.Now(),
		},
		IncludeMemory: includeMemory,
	})
	writeJSON(w, http.StatusOK, result)
}

// healthResponse reports component availability.
type healthResponse struct {
	Status  string `json:"status"`
	Backend bool   `json:"backend"`
	Model   string `json:"model"`
	Encoder string `json:"encoder"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	backendOK := s.deps.Backend.Healthy(r.Context())

	resp := healthResponse{
		Status:  "ok",
		Backend: backendOK,
		Model:   s.deps.ModelName,
		Encoder: s.deps.EmbedModel,
		Version: s.deps.Version,
	}
	if !backendOK {
		// Generation still works through degraded recall, so this is
		// degraded rather than down.
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

// generationParams is the wire shape of the active sampling settings.
type generationParams struct {
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// statsResponse combines runtime metrics with backend record counts and
// the active model settings.
type statsResponse struct {
	Runtime    metrics.Snapshot `json:"runtime"`
	Memory     *knowledge.Stats `json:"memory,omitempty"`
	Model      string           `json:"model"`
	Generation generationParams `json:"generation"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Runtime: s.deps.Collector.Snapshot(),
		Model:   s.deps.ModelName,
		Generation: generationParams{
			MaxTokens:     s.deps.GenConfig.MaxTokens,
			Temperature:   s.deps.GenConfig.Temperature,
			TopP:          s.deps.GenConfig.TopP,
			RepeatPenalty: s.deps.GenConfig.RepeatPenalty,
		},
	}

	if stats, err := s.deps.Backend.Stats(r.Context()); err == nil {
		resp.Memory = &stats
	} else {
		s.logger.Warn("backend stats unavailable", "error", err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
