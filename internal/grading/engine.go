package grading

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/submission"
)

// Result is the outcome of scoring a single question answer.
type Result struct {
	Awarded     float64  // points awarded automatically
	Max         float64  // the question's max points
	NeedsManual bool     // true when a grader must supply the score
	Suggested   *float64 // fuzzy-match hint for the grader, never auto-awarded
}

// Strategy scores one question. Strategies are pure; the answer may be nil
// when the student skipped the question.
type Strategy interface {
	Score(q assessment.Question, ans *submission.Answer) Result
}

// Input is the grader's contribution to a grading pass.
type Input struct {
	// ManualPoints awards open-ended quiz questions, keyed by question id.
	ManualPoints map[string]float64 `json:"manual_points,omitempty"`
	// Levels selects one qualitative level per rubric criterion.
	Levels map[string]assessment.RubricLevel `json:"levels,omitempty"`

	Feedback string `json:"feedback,omitempty"`
}

// IncompleteGradingError rejects a finalize request while required items
// are still unscored.
type IncompleteGradingError struct {
	Missing []string // item ids
}

func (e *IncompleteGradingError) Error() string {
	return fmt.Sprintf("cannot finalize: %d item(s) unscored: %s", len(e.Missing), strings.Join(e.Missing, ", "))
}

type Option func(*config)

type config struct {
	MaxEditDistance int // short-answer fuzzy suggestion threshold
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// Engine computes a Grade from an (Assessment, Submission) pair. It is
// deterministic and does no I/O; the same inputs always yield the same Grade.
type Engine struct {
	strategies map[assessment.QuestionType]Strategy
}

func NewEngine(opts ...Option) *Engine {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &Engine{strategies: map[assessment.QuestionType]Strategy{
		assessment.QuestionMCQ:           choiceStrategy{},
		assessment.QuestionTrueFalse:     boolStrategy{},
		assessment.QuestionShortAnswer:   shortAnswerStrategy{maxEdit: cfg.MaxEditDistance},
		assessment.QuestionEssay:         manualStrategy{},
		assessment.QuestionVideo:         manualStrategy{},
		assessment.QuestionComprehension: manualStrategy{},
	}}
}

// Grade scores sub against a. With final=false, unscored items contribute 0
// and no error is raised; with final=true any unscored required item fails
// with IncompleteGradingError.
func (e *Engine) Grade(a assessment.Assessment, sub submission.Submission, in Input, final bool) (Grade, error) {
	switch a.Type {
	case assessment.TypeQuiz:
		return e.gradeQuiz(a, sub, in, final)
	case assessment.TypeAssignment:
		return e.gradeAssignment(a, sub, in, final)
	}
	return Grade{}, fmt.Errorf("assessment %s has unknown type %q", a.ID, a.Type)
}

func (e *Engine) gradeQuiz(a assessment.Assessment, sub submission.Submission, in Input, final bool) (Grade, error) {
	g := Grade{SubmissionID: sub.ID, PerItem: map[string]float64{}}
	var missing []string

	for _, q := range a.Questions {
		g.MaxScore += q.Points

		var ans *submission.Answer
		if v, ok := sub.Answers[q.ID]; ok {
			ans = &v
		}

		if q.Type.AutoGradable() {
			res := e.strategies[q.Type].Score(q, ans)
			g.PerItem[q.ID] = res.Awarded
			g.TotalScore += res.Awarded
			continue
		}

		pts, scored := in.ManualPoints[q.ID]
		if !scored {
			missing = append(missing, q.ID)
			continue
		}
		pts = clamp(pts, 0, q.Points)
		g.PerItem[q.ID] = pts
		g.TotalScore += pts
	}

	if final && len(missing) > 0 {
		sort.Strings(missing)
		return Grade{}, &IncompleteGradingError{Missing: missing}
	}

	g.finish(a)
	return g, nil
}

func (e *Engine) gradeAssignment(a assessment.Assessment, sub submission.Submission, in Input, final bool) (Grade, error) {
	g := Grade{SubmissionID: sub.ID, PerItem: map[string]float64{}}
	var missing []string

	for _, c := range a.Rubric {
		g.MaxScore += c.Points

		level, scored := in.Levels[c.ID]
		if !scored {
			// Never assume a default level: an unscored criterion is 0.
			missing = append(missing, c.ID)
			continue
		}
		if !level.Valid() {
			return Grade{}, fmt.Errorf("criterion %s: unknown level %q", c.ID, level)
		}
		pts := c.Award(level)
		g.PerItem[c.ID] = pts
		g.TotalScore += pts
	}

	if final && len(missing) > 0 {
		sort.Strings(missing)
		return Grade{}, &IncompleteGradingError{Missing: missing}
	}

	g.finish(a)
	return g, nil
}

// --- strategies ---

type choiceStrategy struct{}

func (choiceStrategy) Score(q assessment.Question, ans *submission.Answer) Result {
	res := Result{Max: q.Points}
	if ans == nil || ans.Choice == nil || q.CorrectChoice == nil {
		return res
	}
	if *ans.Choice == *q.CorrectChoice {
		res.Awarded = q.Points
	}
	return res
}

type boolStrategy struct{}

func (boolStrategy) Score(q assessment.Question, ans *submission.Answer) Result {
	res := Result{Max: q.Points}
	if ans == nil || ans.Bool == nil || q.CorrectBool == nil {
		return res
	}
	if *ans.Bool == *q.CorrectBool {
		res.Awarded = q.Points
	}
	return res
}

// shortAnswerStrategy never awards on its own; it computes a suggestion for
// the grader from the question's answer key using normalized comparison and
// a small edit-distance allowance.
type shortAnswerStrategy struct{ maxEdit int }

func (s shortAnswerStrategy) Score(q assessment.Question, ans *submission.Answer) Result {
	res := Result{Max: q.Points, NeedsManual: true}
	if ans == nil || len(q.AnswerKey) == 0 {
		return res
	}
	got := normalize(ans.Text)
	if got == "" {
		return res
	}
	best := 0.0
	for _, k := range q.AnswerKey {
		nk := normalize(k)
		if nk == got {
			best = q.Points
			break
		}
		if s.maxEdit > 0 && levenshtein(nk, got) <= s.maxEdit && best < q.Points*0.5 {
			best = q.Points * 0.5
		}
	}
	if best > 0 {
		res.Suggested = &best
	}
	return res
}

type manualStrategy struct{}

func (manualStrategy) Score(q assessment.Question, _ *submission.Answer) Result {
	return Result{Max: q.Points, NeedsManual: true}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
