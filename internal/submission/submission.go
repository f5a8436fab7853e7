package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classforge/assessd/internal/assessment"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusLate      Status = "late"
	StatusGraded    Status = "graded"
	StatusReturned  Status = "returned"
)

// rank orders the lifecycle: submitted/late -> graded -> returned.
// Transitions never move to a lower rank.
func (s Status) rank() int {
	switch s {
	case StatusSubmitted, StatusLate:
		return 0
	case StatusGraded:
		return 1
	case StatusReturned:
		return 2
	}
	return -1
}

// Answer is a tagged union keyed by the owning question's declared type,
// so graders can match exhaustively instead of inspecting raw values.
type Answer struct {
	QuestionID string                  `json:"question_id"`
	Type       assessment.QuestionType `json:"type"`
	Choice     *int                    `json:"choice,omitempty"` // mcq: option index
	Bool       *bool                   `json:"bool,omitempty"`   // true_false
	Text       string                  `json:"text,omitempty"`   // short_answer/essay/video/comprehension
}

// Submission is one student's attempt against a published assessment.
// It references the assessment and student by id only.
type Submission struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	StudentID    string    `json:"student_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Status       Status    `json:"status"`

	AttemptNumber int `json:"attempt_number"`
	TimeTakenSec  int `json:"time_taken_sec,omitempty"`

	Answers      map[string]Answer `json:"answers,omitempty"`       // quiz: question id -> answer
	ArtifactRefs []string          `json:"artifact_refs,omitempty"` // assignment uploads
	Text         string            `json:"text,omitempty"`          // assignment free text

	Score      *float64   `json:"score,omitempty"`
	Percentage *int       `json:"percentage,omitempty"`
	Passed     *bool      `json:"passed,omitempty"`
	Feedback   string     `json:"feedback,omitempty"`
	GradedBy   string     `json:"graded_by,omitempty"`
	GradedAt   *time.Time `json:"graded_at,omitempty"`
}

type AttemptLimitExceededError struct {
	Allowed int
	Attempt int
}

func (e *AttemptLimitExceededError) Error() string {
	return fmt.Sprintf("attempt %d exceeds the allowed %d", e.Attempt, e.Allowed)
}

type StatusTransitionError struct {
	From Status
	To   Status
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("cannot transition submission from %s to %s", e.From, e.To)
}

// Input carries everything a student hands in.
type Input struct {
	AssessmentID string            `json:"assessment_id"`
	StudentID    string            `json:"student_id"`
	Answers      map[string]Answer `json:"answers,omitempty"`
	ArtifactRefs []string          `json:"artifact_refs,omitempty"`
	Text         string            `json:"text,omitempty"`
	TimeTakenSec int               `json:"time_taken_sec,omitempty"`
}

// New creates a submission against a published assessment. Lateness is
// derived from submittedAt vs the due date exactly once, here; it is never
// recomputed. priorAttempts is the count of this student's earlier
// submissions for the same assessment.
func New(a assessment.Assessment, in Input, priorAttempts int, submittedAt time.Time) (Submission, error) {
	if a.Status != assessment.StatusPublished {
		return Submission{}, fmt.Errorf("assessment %s is not published", a.ID)
	}
	if strings.TrimSpace(in.StudentID) == "" {
		return Submission{}, fmt.Errorf("student id required")
	}

	attempt := priorAttempts + 1
	if a.AttemptsAllowed != nil && attempt > *a.AttemptsAllowed {
		return Submission{}, &AttemptLimitExceededError{Allowed: *a.AttemptsAllowed, Attempt: attempt}
	}

	if a.Type == assessment.TypeQuiz {
		for qid, ans := range in.Answers {
			q, ok := a.Question(qid)
			if !ok {
				return Submission{}, fmt.Errorf("answer for unknown question %q", qid)
			}
			if err := checkAnswerShape(q, ans); err != nil {
				return Submission{}, err
			}
		}
	} else if a.FileConstraints != nil {
		for _, ref := range in.ArtifactRefs {
			if !a.FileConstraints.AllowsExt(ref) {
				return Submission{}, fmt.Errorf("artifact %q: file type not allowed", ref)
			}
		}
	}

	status := StatusSubmitted
	if a.DueDate != nil && submittedAt.After(*a.DueDate) {
		status = StatusLate
	}

	return Submission{
		ID:            uuid.NewString(),
		AssessmentID:  a.ID,
		StudentID:     in.StudentID,
		SubmittedAt:   submittedAt.UTC(),
		Status:        status,
		AttemptNumber: attempt,
		TimeTakenSec:  in.TimeTakenSec,
		Answers:       in.Answers,
		ArtifactRefs:  in.ArtifactRefs,
		Text:          in.Text,
	}, nil
}

// checkAnswerShape rejects answers whose payload does not match the
// question's declared type.
func checkAnswerShape(q assessment.Question, ans Answer) error {
	if ans.Type != "" && ans.Type != q.Type {
		return fmt.Errorf("answer for question %q declares type %s, question is %s", q.ID, ans.Type, q.Type)
	}
	switch q.Type {
	case assessment.QuestionMCQ:
		if ans.Choice == nil {
			return fmt.Errorf("question %q: mcq answer needs an option index", q.ID)
		}
		if *ans.Choice < 0 || *ans.Choice >= len(q.Options) {
			return fmt.Errorf("question %q: option index %d out of range", q.ID, *ans.Choice)
		}
	case assessment.QuestionTrueFalse:
		if ans.Bool == nil {
			return fmt.Errorf("question %q: true/false answer needs a boolean", q.ID)
		}
	default:
		if ans.Choice != nil || ans.Bool != nil {
			return fmt.Errorf("question %q: expected a text answer", q.ID)
		}
	}
	return nil
}

// Transition moves the submission forward in its lifecycle. The initial
// submitted/late flag is immutable; graded may advance to returned and
// nothing ever goes backward.
func (s *Submission) Transition(next Status) error {
	if next.rank() <= s.Status.rank() {
		return &StatusTransitionError{From: s.Status, To: next}
	}
	if next == StatusReturned && s.Status != StatusGraded {
		return &StatusTransitionError{From: s.Status, To: next}
	}
	s.Status = next
	return nil
}
