package grading

import (
	"math"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/submission"
)

// Grade is a pure projection of an (Assessment, Submission, Input) triple.
// It is recomputed on demand and never stored independently of its inputs.
type Grade struct {
	SubmissionID string             `json:"submission_id"`
	PerItem      map[string]float64 `json:"per_item"` // question/criterion id -> points
	TotalScore   float64            `json:"total_score"`
	MaxScore     float64            `json:"max_score"`
	Percentage   int                `json:"percentage"`
	Passed       *bool              `json:"passed,omitempty"` // quiz with a passing score only
}

func (g *Grade) finish(a assessment.Assessment) {
	if g.MaxScore > 0 {
		g.Percentage = int(math.Round(g.TotalScore / g.MaxScore * 100))
	}
	if a.Type == assessment.TypeQuiz && a.PassingScorePercent != nil {
		passed := g.Percentage >= *a.PassingScorePercent
		g.Passed = &passed
	}
}

// WorksheetItem is one row of the grader's view of a submission: what the
// engine already scored, what still needs a manual decision, and any
// suggestion derived from the answer key.
type WorksheetItem struct {
	ItemID      string   `json:"item_id"`
	Title       string   `json:"title"`
	MaxPoints   float64  `json:"max_points"`
	AutoAwarded *float64 `json:"auto_awarded,omitempty"`
	NeedsManual bool     `json:"needs_manual"`
	Suggested   *float64 `json:"suggested,omitempty"`
	Awarded     *float64 `json:"awarded,omitempty"` // grader's current draft score
	AnswerText  string   `json:"answer_text,omitempty"`
}

// Worksheet lays out the grading state of sub for a grader, merging any
// draft input recorded so far.
func (e *Engine) Worksheet(a assessment.Assessment, sub submission.Submission, in Input) []WorksheetItem {
	if a.Type == assessment.TypeAssignment {
		items := make([]WorksheetItem, 0, len(a.Rubric))
		for _, c := range a.Rubric {
			it := WorksheetItem{ItemID: c.ID, Title: c.Title, MaxPoints: c.Points, NeedsManual: true}
			if level, ok := in.Levels[c.ID]; ok && level.Valid() {
				pts := c.Award(level)
				it.Awarded = &pts
			}
			items = append(items, it)
		}
		return items
	}

	items := make([]WorksheetItem, 0, len(a.Questions))
	for _, q := range a.Questions {
		it := WorksheetItem{ItemID: q.ID, Title: q.Prompt, MaxPoints: q.Points}

		var ans *submission.Answer
		if v, ok := sub.Answers[q.ID]; ok {
			ans = &v
			it.AnswerText = v.Text
		}
		res := e.strategies[q.Type].Score(q, ans)
		it.NeedsManual = res.NeedsManual
		it.Suggested = res.Suggested
		if !res.NeedsManual {
			awarded := res.Awarded
			it.AutoAwarded = &awarded
		} else if pts, ok := in.ManualPoints[q.ID]; ok {
			pts = clamp(pts, 0, q.Points)
			it.Awarded = &pts
		}
		items = append(items, it)
	}
	return items
}
