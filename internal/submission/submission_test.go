package submission

import (
	"errors"
	"testing"
	"time"

	"github.com/classforge/assessd/internal/assessment"
)

func intp(v int) *int { return &v }

func publishedQuiz(due *time.Time, attempts *int) assessment.Assessment {
	return assessment.Assessment{
		ID:     "quiz-1",
		Title:  "Quiz",
		Type:   assessment.TypeQuiz,
		Status: assessment.StatusPublished,
		Questions: []assessment.Question{
			{ID: "q1", Type: assessment.QuestionMCQ, Prompt: "Pick", Options: []string{"a", "b"}, CorrectChoice: intp(1), Points: 5},
		},
		TotalPoints:     5,
		DueDate:         due,
		AttemptsAllowed: attempts,
	}
}

func TestLatenessDerivedOnce(t *testing.T) {
	due := time.Date(2024, 1, 19, 23, 59, 0, 0, time.UTC)
	a := publishedQuiz(&due, nil)

	onTime, err := New(a, Input{StudentID: "s1"}, 0, time.Date(2024, 1, 19, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("on-time: %v", err)
	}
	if onTime.Status != StatusSubmitted {
		t.Fatalf("status = %s, want submitted", onTime.Status)
	}

	late, err := New(a, Input{StudentID: "s1"}, 1, time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("late: %v", err)
	}
	if late.Status != StatusLate {
		t.Fatalf("status = %s, want late", late.Status)
	}
}

func TestAttemptLimit(t *testing.T) {
	a := publishedQuiz(nil, intp(1))

	first, err := New(a, Input{StudentID: "s1"}, 0, time.Now())
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if first.AttemptNumber != 1 {
		t.Fatalf("attempt = %d, want 1", first.AttemptNumber)
	}

	_, err = New(a, Input{StudentID: "s1"}, 1, time.Now())
	var ale *AttemptLimitExceededError
	if !errors.As(err, &ale) {
		t.Fatalf("expected AttemptLimitExceededError, got %v", err)
	}
	if ale.Allowed != 1 || ale.Attempt != 2 {
		t.Fatalf("error detail = %+v", ale)
	}
}

func TestUnlimitedAttempts(t *testing.T) {
	a := publishedQuiz(nil, nil)
	if _, err := New(a, Input{StudentID: "s1"}, 41, time.Now()); err != nil {
		t.Fatalf("unlimited attempts rejected: %v", err)
	}
}

func TestUnpublishedRejected(t *testing.T) {
	a := publishedQuiz(nil, nil)
	a.Status = assessment.StatusDraft
	if _, err := New(a, Input{StudentID: "s1"}, 0, time.Now()); err == nil {
		t.Fatal("submitting against a draft must fail")
	}
}

func TestAnswerShape(t *testing.T) {
	a := publishedQuiz(nil, nil)

	// wrong payload kind for an mcq
	_, err := New(a, Input{StudentID: "s1", Answers: map[string]Answer{
		"q1": {QuestionID: "q1", Text: "b"},
	}}, 0, time.Now())
	if err == nil {
		t.Fatal("mcq answer without option index must fail")
	}

	// option index out of range
	_, err = New(a, Input{StudentID: "s1", Answers: map[string]Answer{
		"q1": {QuestionID: "q1", Choice: intp(5)},
	}}, 0, time.Now())
	if err == nil {
		t.Fatal("out-of-range option must fail")
	}

	// unknown question
	_, err = New(a, Input{StudentID: "s1", Answers: map[string]Answer{
		"zz": {QuestionID: "zz", Choice: intp(0)},
	}}, 0, time.Now())
	if err == nil {
		t.Fatal("answer for unknown question must fail")
	}

	// well-formed
	sub, err := New(a, Input{StudentID: "s1", Answers: map[string]Answer{
		"q1": {QuestionID: "q1", Choice: intp(1)},
	}}, 0, time.Now())
	if err != nil {
		t.Fatalf("valid answer rejected: %v", err)
	}
	if got := sub.Answers["q1"]; got.Choice == nil || *got.Choice != 1 {
		t.Fatalf("answer not carried: %+v", got)
	}
}

func TestArtifactConstraints(t *testing.T) {
	a := assessment.Assessment{
		ID:     "asg-1",
		Title:  "Essay",
		Type:   assessment.TypeAssignment,
		Status: assessment.StatusPublished,
		Rubric: []assessment.RubricCriterion{
			{ID: "c1", Title: "Clarity", Points: 20},
		},
		TotalPoints:     20,
		FileConstraints: &assessment.FileConstraints{AllowedExts: []string{"pdf"}},
	}

	if _, err := New(a, Input{StudentID: "s1", ArtifactRefs: []string{"notes.txt"}}, 0, time.Now()); err == nil {
		t.Fatal("disallowed extension must fail")
	}
	if _, err := New(a, Input{StudentID: "s1", ArtifactRefs: []string{"essay.pdf"}}, 0, time.Now()); err != nil {
		t.Fatalf("allowed extension rejected: %v", err)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	s := Submission{Status: StatusSubmitted}

	if err := s.Transition(StatusGraded); err != nil {
		t.Fatalf("submitted -> graded: %v", err)
	}
	if err := s.Transition(StatusReturned); err != nil {
		t.Fatalf("graded -> returned: %v", err)
	}

	for _, back := range []Status{StatusSubmitted, StatusLate, StatusGraded} {
		var ste *StatusTransitionError
		if err := s.Transition(back); !errors.As(err, &ste) {
			t.Fatalf("returned -> %s must fail, got %v", back, err)
		}
	}
	if s.Status != StatusReturned {
		t.Fatalf("status mutated on failed transition: %s", s.Status)
	}
}

func TestReturnedRequiresGraded(t *testing.T) {
	s := Submission{Status: StatusLate}
	var ste *StatusTransitionError
	if err := s.Transition(StatusReturned); !errors.As(err, &ste) {
		t.Fatalf("late -> returned must fail, got %v", err)
	}
	if s.Status != StatusLate {
		t.Fatal("status must be unchanged after rejected transition")
	}
}

func TestLateMayBeGraded(t *testing.T) {
	s := Submission{Status: StatusLate}
	if err := s.Transition(StatusGraded); err != nil {
		t.Fatalf("late -> graded: %v", err)
	}
}
