package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/rbac"
	"github.com/classforge/assessd/internal/store"
)

type createAssessmentReq struct {
	Type         assessment.Type `json:"type"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Instructions string          `json:"instructions,omitempty"`

	TimeLimitMin        int        `json:"time_limit_min,omitempty"`
	PassingScorePercent *int       `json:"passing_score_percent,omitempty"`
	AttemptsAllowed     *int       `json:"attempts_allowed,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	ShuffleQuestions    bool       `json:"shuffle_questions,omitempty"`
	ShowCorrectAnswers  bool       `json:"show_correct_answers,omitempty"`

	Questions       []assessment.Question        `json:"questions,omitempty"`
	Rubric          []assessment.RubricCriterion `json:"rubric,omitempty"`
	FileConstraints *assessment.FileConstraints  `json:"file_constraints,omitempty"`

	// Publish validates against the publish-time invariants and makes the
	// assessment live in one step; otherwise it is saved as a draft.
	Publish bool `json:"publish,omitempty"`
}

// POST /assessments
func CreateAssessmentHandler(st store.AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAssessmentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}

		var b *assessment.Builder
		switch req.Type {
		case assessment.TypeQuiz:
			b = assessment.NewQuizBuilder(req.Title)
			for _, q := range req.Questions {
				b.AddQuestion(q)
			}
			if req.PassingScorePercent != nil {
				b.SetPassingScorePercent(*req.PassingScorePercent)
			}
		case assessment.TypeAssignment:
			b = assessment.NewAssignmentBuilder(req.Title)
			for _, c := range req.Rubric {
				b.AddCriterion(c)
			}
			if req.FileConstraints != nil {
				b.SetFileConstraints(*req.FileConstraints)
			}
		default:
			http.Error(w, "type must be quiz or assignment", http.StatusBadRequest)
			return
		}

		b.SetDescription(req.Description).
			SetInstructions(req.Instructions).
			SetTimeLimitMin(req.TimeLimitMin).
			SetShuffleQuestions(req.ShuffleQuestions).
			SetShowCorrectAnswers(req.ShowCorrectAnswers)
		if req.DueDate != nil {
			b.SetDueDate(*req.DueDate)
		}
		if req.AttemptsAllowed != nil {
			b.SetAttemptsAllowed(*req.AttemptsAllowed)
		}

		var a assessment.Assessment
		var err error
		if req.Publish {
			a, err = b.BuildPublished()
		} else {
			a, err = b.Build()
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := st.PutAssessment(r.Context(), a); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /assessments/{assessmentID}
// Tutors and admins get the full authoring view; students get the
// sanitized one.
func GetAssessmentHandler(st store.AssessmentStore) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assessmentID"))
		if id == "" {
			http.Error(w, "assessmentID required", http.StatusBadRequest)
			return
		}
		role := rbac.RoleFromContext(r.Context())

		var a assessment.Assessment
		var err error
		if checker.Has(role, "assessment:view-authoring") {
			a, err = st.GetAssessmentAuthoring(r.Context(), id)
		} else {
			a, err = st.GetAssessment(r.Context(), id)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /assessments?q=&type=&status=&limit=&offset=
func ListAssessmentsHandler(st store.AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := store.AssessmentFilter{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Type:   assessment.Type(r.URL.Query().Get("type")),
			Status: assessment.Status(r.URL.Query().Get("status")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := st.ListAssessments(r.Context(), f)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /assessments/{assessmentID}/publish
func PublishAssessmentHandler(st store.AssessmentStore) http.HandlerFunc {
	return setStatusHandler(st, assessment.StatusPublished)
}

// POST /assessments/{assessmentID}/archive
func ArchiveAssessmentHandler(st store.AssessmentStore) http.HandlerFunc {
	return setStatusHandler(st, assessment.StatusArchived)
}

func setStatusHandler(st store.AssessmentStore, status assessment.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assessmentID"))
		if id == "" {
			http.Error(w, "assessmentID required", http.StatusBadRequest)
			return
		}
		a, err := st.SetAssessmentStatus(r.Context(), id, status)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// DELETE /assessments/{assessmentID}
func DeleteAssessmentHandler(st store.AssessmentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "assessmentID"))
		if id == "" {
			http.Error(w, "assessmentID required", http.StatusBadRequest)
			return
		}
		if err := st.DeleteAssessment(r.Context(), id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
