package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/submission"
)

func intp(v int) *int { return &v }

func newTestStore() *MemoryStore {
	return NewMemoryStore(grading.NewEngine())
}

func publishedEssay(t *testing.T, s *MemoryStore) assessment.Assessment {
	t.Helper()
	a, err := assessment.NewAssignmentBuilder("Essay").
		AddCriterion(assessment.RubricCriterion{ID: "c1", Title: "Clarity", Points: 20}).
		AddCriterion(assessment.RubricCriterion{ID: "c2", Title: "Depth", Points: 30}).
		AddCriterion(assessment.RubricCriterion{ID: "c3", Title: "Sources", Points: 10}).
		BuildPublished()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.PutAssessment(context.Background(), a); err != nil {
		t.Fatalf("put: %v", err)
	}
	return a
}

func publishedQuiz(t *testing.T, s *MemoryStore, attempts *int) assessment.Assessment {
	t.Helper()
	correct := 1
	a, err := assessment.NewQuizBuilder("Quiz").
		AddQuestion(assessment.Question{ID: "q1", Type: assessment.QuestionMCQ, Prompt: "Pick", Options: []string{"a", "b"}, CorrectChoice: &correct, Points: 5}).
		SetPassingScorePercent(60).
		BuildPublished()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	a.AttemptsAllowed = attempts
	if err := s.PutAssessment(context.Background(), a); err != nil {
		t.Fatalf("put: %v", err)
	}
	return a
}

// Full assignment lifecycle: submit, grade in two passes, finalize, release.
func TestGradingFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := publishedEssay(t, s)

	sub, err := s.CreateSubmission(ctx, submission.Input{
		AssessmentID: a.ID, StudentID: "s1", Text: "my essay",
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// first pass grades two of three criteria, saved as draft
	_, err = s.ApplyGrades(ctx, sub.ID, grading.Input{Levels: map[string]assessment.RubricLevel{
		"c1": assessment.LevelGood,
		"c2": assessment.LevelExcellent,
	}}, "tutor-1", false)
	if err != nil {
		t.Fatalf("draft pass: %v", err)
	}

	// finalizing now must name the one unscored criterion
	_, err = s.ApplyGrades(ctx, sub.ID, grading.Input{}, "tutor-1", true)
	var ige *grading.IncompleteGradingError
	if !errors.As(err, &ige) {
		t.Fatalf("expected IncompleteGradingError, got %v", err)
	}
	if len(ige.Missing) != 1 || ige.Missing[0] != "c3" {
		t.Fatalf("missing = %v", ige.Missing)
	}

	// worksheet reflects the saved draft
	items, err := s.GradingWorksheet(ctx, sub.ID)
	if err != nil {
		t.Fatalf("worksheet: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("worksheet rows = %d", len(items))
	}
	for _, it := range items {
		if it.ItemID == "c1" && (it.Awarded == nil || *it.Awarded != 16) {
			t.Fatalf("c1 draft = %v, want 16", it.Awarded)
		}
		if it.ItemID == "c3" && it.Awarded != nil {
			t.Fatalf("c3 should be unscored, got %v", *it.Awarded)
		}
	}

	// second pass completes the rubric and finalizes; the draft merges
	got, err := s.ApplyGrades(ctx, sub.ID, grading.Input{
		Levels:   map[string]assessment.RubricLevel{"c3": assessment.LevelSatisfactory},
		Feedback: "solid work",
	}, "tutor-1", true)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got.Status != submission.StatusGraded {
		t.Fatalf("status = %s, want graded", got.Status)
	}
	// 16 + 30 + 6 of 60
	if got.Score == nil || *got.Score != 52 {
		t.Fatalf("score = %v, want 52", got.Score)
	}
	if got.Percentage == nil || *got.Percentage != 87 {
		t.Fatalf("percentage = %v, want 87", got.Percentage)
	}
	if got.GradedBy != "tutor-1" || got.GradedAt == nil || got.Feedback != "solid work" {
		t.Fatalf("grader fields: %+v", got)
	}

	released, err := s.ReleaseSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.Status != submission.StatusReturned {
		t.Fatalf("status = %s, want returned", released.Status)
	}

	// a second release must fail, the lifecycle only moves forward
	if _, err := s.ReleaseSubmission(ctx, sub.ID); err == nil {
		t.Fatal("double release must fail")
	}
}

func TestReleaseBeforeGradingRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := publishedQuiz(t, s, nil)

	sub, err := s.CreateSubmission(ctx, submission.Input{
		AssessmentID: a.ID, StudentID: "s1",
		Answers: map[string]submission.Answer{"q1": {QuestionID: "q1", Choice: intp(1)}},
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var ste *submission.StatusTransitionError
	if _, err := s.ReleaseSubmission(ctx, sub.ID); !errors.As(err, &ste) {
		t.Fatalf("expected StatusTransitionError, got %v", err)
	}
}

func TestAttemptLimitEnforced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := publishedQuiz(t, s, intp(2))

	in := submission.Input{
		AssessmentID: a.ID, StudentID: "s1",
		Answers: map[string]submission.Answer{"q1": {QuestionID: "q1", Choice: intp(0)}},
	}
	for i := 0; i < 2; i++ {
		if _, err := s.CreateSubmission(ctx, in, time.Now()); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	var ale *submission.AttemptLimitExceededError
	if _, err := s.CreateSubmission(ctx, in, time.Now()); !errors.As(err, &ale) {
		t.Fatalf("expected AttemptLimitExceededError, got %v", err)
	}

	// another student is unaffected
	in.StudentID = "s2"
	if _, err := s.CreateSubmission(ctx, in, time.Now()); err != nil {
		t.Fatalf("other student: %v", err)
	}
}

func TestStudentViewStripsAnswers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := publishedQuiz(t, s, nil)

	student, err := s.GetAssessment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if student.Questions[0].CorrectChoice != nil {
		t.Fatal("student view must not carry the correct choice")
	}

	authoring, err := s.GetAssessmentAuthoring(ctx, a.ID)
	if err != nil {
		t.Fatalf("get authoring: %v", err)
	}
	if authoring.Questions[0].CorrectChoice == nil {
		t.Fatal("authoring view lost the correct choice")
	}
}

func TestStatusLifecycleGate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	correct := 0
	draft, err := assessment.NewQuizBuilder("Draft").
		AddQuestion(assessment.Question{ID: "q1", Type: assessment.QuestionMCQ, Prompt: "Pick", Options: []string{"a", "b"}, CorrectChoice: &correct, Points: 5}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := s.PutAssessment(ctx, draft); err != nil {
		t.Fatalf("put: %v", err)
	}

	pub, err := s.SetAssessmentStatus(ctx, draft.ID, assessment.StatusPublished)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if pub.PublishedAt == nil {
		t.Fatal("publish must stamp PublishedAt")
	}

	// published -> draft is not a thing
	if _, err := s.SetAssessmentStatus(ctx, draft.ID, assessment.StatusDraft); err == nil {
		t.Fatal("unpublishing must fail")
	}

	if _, err := s.SetAssessmentStatus(ctx, draft.ID, assessment.StatusArchived); err != nil {
		t.Fatalf("archive: %v", err)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	publishedQuiz(t, s, nil)
	publishedEssay(t, s)

	all, err := s.ListAssessments(ctx, AssessmentFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	quizzes, err := s.ListAssessments(ctx, AssessmentFilter{Type: assessment.TypeQuiz})
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].Type != assessment.TypeQuiz {
		t.Fatalf("quizzes = %+v", quizzes)
	}

	byTitle, err := s.ListAssessments(ctx, AssessmentFilter{Q: "essay"})
	if err != nil {
		t.Fatalf("list by title: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].Title != "Essay" {
		t.Fatalf("byTitle = %+v", byTitle)
	}

	paged, err := s.ListAssessments(ctx, AssessmentFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("paged len = %d, want 1", len(paged))
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := publishedQuiz(t, s, nil)

	sub, err := s.CreateSubmission(ctx, submission.Input{
		AssessmentID: a.ID, StudentID: "s1",
		Answers: map[string]submission.Answer{"q1": {QuestionID: "q1", Choice: intp(1)}},
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.DeleteAssessment(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetAssessment(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetSubmission(ctx, sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("submission should be gone, got %v", err)
	}
}

func TestQuizFinalizeComputesPassed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := publishedQuiz(t, s, nil)

	sub, err := s.CreateSubmission(ctx, submission.Input{
		AssessmentID: a.ID, StudentID: "s1",
		Answers: map[string]submission.Answer{"q1": {QuestionID: "q1", Choice: intp(1)}},
	}, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.ApplyGrades(ctx, sub.ID, grading.Input{}, "tutor-1", true)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got.Score == nil || *got.Score != 5 {
		t.Fatalf("score = %v, want 5", got.Score)
	}
	if got.Percentage == nil || *got.Percentage != 100 {
		t.Fatalf("percentage = %v", got.Percentage)
	}
	if got.Passed == nil || !*got.Passed {
		t.Fatal("expected passed")
	}
}
