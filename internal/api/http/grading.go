package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/classforge/assessd/internal/auth/middleware"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/store"
)

type applyGradesReq struct {
	grading.Input
	Finalize bool `json:"finalize,omitempty"`
}

// GET /submissions/{submissionID}/grading
func GetGradingWorksheetHandler(st store.SubmissionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if id == "" {
			http.Error(w, "submissionID required", http.StatusBadRequest)
			return
		}
		items, err := st.GradingWorksheet(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// POST /submissions/{submissionID}/grading
func ApplyGradesHandler(st store.SubmissionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if id == "" {
			http.Error(w, "submissionID required", http.StatusBadRequest)
			return
		}
		var req applyGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		gradedBy := authmw.SubjectFromContext(r.Context())
		s, err := st.ApplyGrades(r.Context(), id, req.Input, gradedBy, req.Finalize)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /submissions/{submissionID}/release
// Releasing is an explicit separate action; grading never auto-returns a
// submission to the student.
func ReleaseSubmissionHandler(st store.SubmissionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if id == "" {
			http.Error(w, "submissionID required", http.StatusBadRequest)
			return
		}
		s, err := st.ReleaseSubmission(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
