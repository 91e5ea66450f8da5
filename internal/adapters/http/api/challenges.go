package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	service "github.com/kmarek/evalarena/internal/app"
)

// ChallengesHandler handles challenge creation, listing and the
// per-challenge subtree (info, leaderboard, submissions).
type ChallengesHandler struct {
	deps Dependencies
}

// NewChallengesHandler creates a new challenges handler.
func NewChallengesHandler(deps Dependencies) *ChallengesHandler {
	return &ChallengesHandler{deps: deps}
}

// HandleChallenges handles POST /challenges and GET /challenges.
func (h *ChallengesHandler) HandleChallenges(w http.ResponseWriter, r *http.Request) {
	const op = "api.challenges"
	switch r.Method {
	case http.MethodPost:
		var in service.CreateChallengeInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(in.Title) == "" {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		row, err := h.deps.CreateChallenge(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, row)
	case http.MethodGet:
		rows, err := h.deps.Challenges(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	default:
		http.NotFound(w, r)
	}
}

// HandleChallengeSubtree routes GET /challenges/{title},
// GET /challenges/{title}/leaderboard and
// GET /challenges/{title}/submissions.
func (h *ChallengesHandler) HandleChallengeSubtree(w http.ResponseWriter, r *http.Request) {
	const op = "api.challenge"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/challenges/")
	title, action, _ := strings.Cut(rest, "/")
	if title == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch action {
	case "":
		row, err := h.deps.ChallengeInfo(r.Context(), title)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	case "leaderboard":
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
				return
			}
			limit = n
		}
		rows, err := h.deps.Leaderboard(r.Context(), title, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	case "submissions":
		rows, err := h.deps.Submissions(r.Context(), title, r.URL.Query().Get("submitter"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	default:
		http.NotFound(w, r)
	}
}
