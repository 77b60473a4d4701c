// Package chi exposes the question answering pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cricketmind/cricketmind/internal/domain"
	healthuc "github.com/cricketmind/cricketmind/internal/usecase/health"
	reasonuc "github.com/cricketmind/cricketmind/internal/usecase/reason"
)

const emptyQuestionMessage = "Question cannot be empty"

// Server handles the HTTP API.
type Server struct {
	reason *reasonuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(reason *reasonuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{reason: reason, health: health, logger: logger}
}

// Register mounts the API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/reason", s.Reason)
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type reasonResponse struct {
	FinalAnswer           string `json:"final_answer"`
	RetrievedMatchesCount int    `json:"retrieved_matches_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Reason handles GET /reason?question=...&top_k=N.
func (s *Server) Reason(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	if strings.TrimSpace(question) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: emptyQuestionMessage})
		return
	}

	topK := 0
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "top_k must be an integer"})
			return
		}
		topK = v
	}

	outcome, err := s.reason.Reason(r.Context(), question, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reasonResponse{
		FinalAnswer:           outcome.FinalAnswer,
		RetrievedMatchesCount: outcome.RetrievedMatches,
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: emptyQuestionMessage})
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		s.logger.Warn("Embedding provider error", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "embedding provider unavailable"})
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
