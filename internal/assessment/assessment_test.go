package assessment

import (
	"errors"
	"testing"
	"time"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func validQuiz() Assessment {
	return Assessment{
		ID:     "quiz-1",
		Title:  "Basics",
		Type:   TypeQuiz,
		Status: StatusDraft,
		Questions: []Question{
			{ID: "q1", Type: QuestionMCQ, Prompt: "Pick one", Options: []string{"a", "b", "c"}, CorrectChoice: intp(1), Points: 5},
			{ID: "q2", Type: QuestionTrueFalse, Prompt: "True?", CorrectBool: boolp(true), Points: 10},
		},
		TotalPoints: 15,
		CreatedAt:   time.Now(),
	}
}

func validAssignment() Assessment {
	return Assessment{
		ID:     "asg-1",
		Title:  "Essay",
		Type:   TypeAssignment,
		Status: StatusDraft,
		Rubric: []RubricCriterion{
			{ID: "c1", Title: "Clarity", Points: 20},
			{ID: "c2", Title: "Depth", Points: 30},
		},
		TotalPoints: 50,
		CreatedAt:   time.Now(),
	}
}

func TestValidateQuiz(t *testing.T) {
	if err := validQuiz().Validate(); err != nil {
		t.Fatalf("valid quiz rejected: %v", err)
	}
}

func TestValidateTotalPointsMismatch(t *testing.T) {
	a := validQuiz()
	a.TotalPoints = 14
	var ve *ValidationError
	if err := a.Validate(); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateMCQInvariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Question)
	}{
		{"no correct answer", func(q *Question) { q.CorrectChoice = nil }},
		{"index out of range", func(q *Question) { q.CorrectChoice = intp(3) }},
		{"negative index", func(q *Question) { q.CorrectChoice = intp(-1) }},
		{"single option", func(q *Question) { q.Options = []string{"a"}; q.CorrectChoice = intp(0) }},
		{"empty option", func(q *Question) { q.Options = []string{"a", " "} }},
		{"zero points", func(q *Question) { q.Points = 0 }},
		{"negative points", func(q *Question) { q.Points = -2 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := validQuiz()
			tc.mutate(&a.Questions[0])
			a.TotalPoints = a.SumPoints()
			var ve *ValidationError
			if err := a.Validate(); !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestValidatePublishEmpty(t *testing.T) {
	a := validQuiz()
	a.Questions = nil
	a.TotalPoints = 0
	a.Status = StatusPublished
	if err := a.Validate(); err == nil {
		t.Fatal("published quiz with no questions must fail")
	}

	b := validAssignment()
	b.Rubric = nil
	b.TotalPoints = 0
	b.Status = StatusPublished
	if err := b.Validate(); err == nil {
		t.Fatal("published assignment with no criteria must fail")
	}
}

func TestValidateCriterionTitle(t *testing.T) {
	a := validAssignment()
	a.Rubric[0].Title = "  "
	var ve *ValidationError
	if err := a.Validate(); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateAssignmentPassingScore(t *testing.T) {
	a := validAssignment()
	a.PassingScorePercent = intp(70)
	if err := a.Validate(); err == nil {
		t.Fatal("passing score on an assignment must fail")
	}
}

func TestSumPointsMatchesTotal(t *testing.T) {
	if got := validQuiz().SumPoints(); got != 15 {
		t.Fatalf("quiz sum = %v, want 15", got)
	}
	if got := validAssignment().SumPoints(); got != 50 {
		t.Fatalf("assignment sum = %v, want 50", got)
	}
}

func TestSanitizeStripsAnswers(t *testing.T) {
	a := validQuiz()
	a.Questions[0].Explanation = "because"
	a.Questions[1].AnswerKey = []string{"yes"}
	s := a.Sanitize()
	for i, q := range s.Questions {
		if q.CorrectChoice != nil || q.CorrectBool != nil || q.AnswerKey != nil || q.Explanation != "" {
			t.Fatalf("question %d not sanitized: %+v", i, q)
		}
	}
	// the original is untouched
	if a.Questions[0].CorrectChoice == nil {
		t.Fatal("sanitize must not mutate the source")
	}
}

func TestLevelFractionsMonotonic(t *testing.T) {
	order := []RubricLevel{LevelExcellent, LevelGood, LevelSatisfactory, LevelNeedsImprovement}
	for i := 1; i < len(order); i++ {
		if LevelFraction[order[i-1]] < LevelFraction[order[i]] {
			t.Fatalf("fractions not monotonic: %s < %s", order[i-1], order[i])
		}
	}
}

func TestCriterionAwardRounds(t *testing.T) {
	c := RubricCriterion{ID: "c", Title: "t", Points: 20}
	if got := c.Award(LevelGood); got != 16 {
		t.Fatalf("good on 20 pts = %v, want 16", got)
	}
	// 25 * 0.6 = 15; 25 * 0.8 = 20
	c.Points = 25
	if got := c.Award(LevelSatisfactory); got != 15 {
		t.Fatalf("satisfactory on 25 pts = %v, want 15", got)
	}
	if got := c.Award("bogus"); got != 0 {
		t.Fatalf("unknown level must award 0, got %v", got)
	}
}

func TestFileConstraints(t *testing.T) {
	fc := FileConstraints{AllowedExts: []string{"pdf", ".Docx"}, MaxSizeMB: 1}
	if !fc.AllowsExt("paper.PDF") {
		t.Fatal("pdf should be allowed")
	}
	if !fc.AllowsExt("essay.docx") {
		t.Fatal("docx should be allowed")
	}
	if fc.AllowsExt("virus.exe") {
		t.Fatal("exe should be rejected")
	}
	if !fc.WithinSize(1024 * 1024) {
		t.Fatal("1MB should fit")
	}
	if fc.WithinSize(1024*1024 + 1) {
		t.Fatal("over 1MB should not fit")
	}
}
