package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/store"
	"github.com/classforge/assessd/internal/submission"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	status := errStatus(err)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// errStatus maps the domain error taxonomy onto HTTP codes. Everything here
// is a caller logic error, not a transient fault, so nothing is retried.
func errStatus(err error) int {
	var ve *assessment.ValidationError
	var ale *submission.AttemptLimitExceededError
	var ste *submission.StatusTransitionError
	var ige *grading.IncompleteGradingError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ale), errors.As(err, &ste), errors.As(err, &ige):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
