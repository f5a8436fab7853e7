package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/classforge/assessd/internal/auth/middleware"
	"github.com/classforge/assessd/internal/rbac"
	"github.com/classforge/assessd/internal/store"
	"github.com/classforge/assessd/internal/submission"
)

// POST /submissions
// The student id comes from the token, not the payload; a student cannot
// submit on someone else's behalf.
func CreateSubmissionHandler(st store.SubmissionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in submission.Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if in.AssessmentID == "" {
			http.Error(w, "assessment_id required", http.StatusBadRequest)
			return
		}
		if sub := authmw.SubjectFromContext(r.Context()); sub != "" {
			in.StudentID = sub
		}
		s, err := st.CreateSubmission(r.Context(), in, time.Now())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

// GET /submissions/{submissionID}
// Students may only read their own.
func GetSubmissionHandler(st store.SubmissionStore) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if id == "" {
			http.Error(w, "submissionID required", http.StatusBadRequest)
			return
		}
		s, err := st.GetSubmission(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if !checker.Has(role, "submission:view-all") && s.StudentID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /assessments/{assessmentID}/submissions?student=&status=&limit=&offset=
func ListSubmissionsHandler(st store.SubmissionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assessmentID := strings.TrimSpace(chi.URLParam(r, "assessmentID"))
		if assessmentID == "" {
			http.Error(w, "assessmentID required", http.StatusBadRequest)
			return
		}
		f := store.SubmissionFilter{
			StudentID: strings.TrimSpace(r.URL.Query().Get("student")),
			Status:    submission.Status(r.URL.Query().Get("status")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := st.ListSubmissions(r.Context(), assessmentID, f)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
