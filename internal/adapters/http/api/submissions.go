package api

import (
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/kmarek/evalarena/internal/app"
)

type submissionAck struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

// SubmissionsHandler handles submission intake.
type SubmissionsHandler struct {
	deps Dependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps Dependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// HandlePostSubmission handles POST /submissions requests. Accepted
// submissions are scored asynchronously; the ack carries a job id for
// correlation.
func (h *SubmissionsHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var in service.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(in.Challenge) == "" || strings.TrimSpace(in.Submitter) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	jobID, err := h.deps.Submit(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submissionAck{Status: "accepted", JobID: jobID})
}
