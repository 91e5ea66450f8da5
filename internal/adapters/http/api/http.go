// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kmarek/evalarena/internal/adapters/filestore"
	"github.com/kmarek/evalarena/internal/adapters/repository"
	service "github.com/kmarek/evalarena/internal/app"
	"github.com/kmarek/evalarena/internal/domain/metric"
	"github.com/kmarek/evalarena/internal/domain/types"
)

// Dependencies required by the HTTP handlers. An interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateChallenge(ctx context.Context, in service.CreateChallengeInput) (types.ChallengeRow, error)
	Challenges(ctx context.Context) ([]types.ChallengeRow, error)
	ChallengeInfo(ctx context.Context, title string) (types.ChallengeRow, error)
	Submit(ctx context.Context, in service.SubmitInput) (string, error)
	Leaderboard(ctx context.Context, title string, limit int) ([]types.LeaderboardRow, error)
	Submissions(ctx context.Context, title, submitter string) ([]types.SubmissionRow, error)
	MetricInfos(ctx context.Context) ([]metric.Info, error)
	GetStats(ctx context.Context) (types.Stats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	challengesHandler  *ChallengesHandler
	submissionsHandler *SubmissionsHandler
	metricInfoHandler  *MetricInfoHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		challengesHandler:  NewChallengesHandler(deps),
		submissionsHandler: NewSubmissionsHandler(deps),
		metricInfoHandler:  NewMetricInfoHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/metric-info", MetricsMiddleware(s.metricInfoHandler.HandleGetMetricInfo, "metric_info"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.submissionsHandler.HandlePostSubmission, "submissions"))
	mux.HandleFunc("/challenges", MetricsMiddleware(s.challengesHandler.HandleChallenges, "challenges"))
	mux.HandleFunc("/challenges/", MetricsMiddleware(s.challengesHandler.HandleChallengeSubtree, "challenge"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service sentinels onto HTTP statuses so every
// handler reports failures the same way.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound) || errors.Is(err, filestore.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrDuplicateChallenge) || errors.Is(err, service.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, service.ErrDeadlinePassed):
		writeError(w, http.StatusForbidden, "deadline_passed", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, metric.ErrUnknownMetric),
		errors.Is(err, metric.ErrInvalidParameters),
		errors.Is(err, service.ErrEmptySubmission),
		errors.Is(err, service.ErrLengthMismatch),
		errors.Is(err, service.ErrNoMainMetric),
		errors.Is(err, service.ErrNoExpectedOutput),
		errors.Is(err, filestore.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
