package store

import (
	"context"
	"errors"
	"time"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/submission"
)

var ErrNotFound = errors.New("not found")

type AssessmentFilter struct {
	Q      string
	Type   assessment.Type
	Status assessment.Status
	Limit  int
	Offset int
}

type SubmissionFilter struct {
	StudentID string
	Status    submission.Status
	Limit     int
	Offset    int
}

// Summary is the list-view projection of an assessment.
type Summary struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Type        assessment.Type   `json:"type"`
	Status      assessment.Status `json:"status"`
	TotalPoints float64           `json:"total_points"`
	ItemCount   int               `json:"item_count"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AssessmentStore persists assessments. Put and SetStatus re-run the model
// invariants so nothing invalid ever reaches disk.
type AssessmentStore interface {
	PutAssessment(ctx context.Context, a assessment.Assessment) error
	// GetAssessment is the student-safe read: answer keys are stripped.
	GetAssessment(ctx context.Context, id string) (assessment.Assessment, error)
	// GetAssessmentAuthoring returns the full assessment for tutors/graders.
	GetAssessmentAuthoring(ctx context.Context, id string) (assessment.Assessment, error)
	ListAssessments(ctx context.Context, f AssessmentFilter) ([]Summary, error)
	// SetAssessmentStatus publishes (draft -> published) or archives
	// (published -> archived), enforcing publish-time invariants.
	SetAssessmentStatus(ctx context.Context, id string, status assessment.Status) (assessment.Assessment, error)
	DeleteAssessment(ctx context.Context, id string) error
}

// SubmissionStore persists submissions and grading state. A submission is
// graded at most once per pass; callers serialize concurrent grading of the
// same submission id.
type SubmissionStore interface {
	// CreateSubmission runs the lateness and attempt-limit policy.
	CreateSubmission(ctx context.Context, in submission.Input, now time.Time) (submission.Submission, error)
	GetSubmission(ctx context.Context, id string) (submission.Submission, error)
	ListSubmissions(ctx context.Context, assessmentID string, f SubmissionFilter) ([]submission.Submission, error)

	// GradingWorksheet returns the per-item grading state, including any
	// draft scores recorded by earlier passes.
	GradingWorksheet(ctx context.Context, submissionID string) ([]grading.WorksheetItem, error)
	// ApplyGrades merges the grader's input with any saved draft. With
	// finalize, the grade is computed, persisted and the submission moves
	// to graded.
	ApplyGrades(ctx context.Context, submissionID string, in grading.Input, gradedBy string, finalize bool) (submission.Submission, error)
	// ReleaseSubmission moves graded -> returned (release to student).
	ReleaseSubmission(ctx context.Context, submissionID string) (submission.Submission, error)
}

type Store interface {
	AssessmentStore
	SubmissionStore
}

// mergeInput folds a new grading pass into the saved draft. Later passes
// win per item; feedback is replaced when supplied.
func mergeInput(saved, in grading.Input) grading.Input {
	if saved.ManualPoints == nil && len(in.ManualPoints) > 0 {
		saved.ManualPoints = map[string]float64{}
	}
	for k, v := range in.ManualPoints {
		saved.ManualPoints[k] = v
	}
	if saved.Levels == nil && len(in.Levels) > 0 {
		saved.Levels = map[string]assessment.RubricLevel{}
	}
	for k, v := range in.Levels {
		saved.Levels[k] = v
	}
	if in.Feedback != "" {
		saved.Feedback = in.Feedback
	}
	return saved
}

// statusChangeAllowed gates the assessment lifecycle.
func statusChangeAllowed(from, to assessment.Status) bool {
	switch {
	case from == assessment.StatusDraft && to == assessment.StatusPublished:
		return true
	case from == assessment.StatusPublished && to == assessment.StatusArchived:
		return true
	}
	return false
}
