package assessment

import (
	"math"
	"strings"
)

type RubricLevel string

const (
	LevelExcellent        RubricLevel = "excellent"
	LevelGood             RubricLevel = "good"
	LevelSatisfactory     RubricLevel = "satisfactory"
	LevelNeedsImprovement RubricLevel = "needs_improvement"
)

// LevelFraction is the single source for the level-to-points conversion.
// Authoring previews and the scoring engine both read from here so the two
// sides can never disagree.
var LevelFraction = map[RubricLevel]float64{
	LevelExcellent:        1.00,
	LevelGood:             0.80,
	LevelSatisfactory:     0.60,
	LevelNeedsImprovement: 0.40,
}

func (l RubricLevel) Valid() bool {
	_, ok := LevelFraction[l]
	return ok
}

// LevelDescriptions carries the author-written text for each level.
type LevelDescriptions struct {
	Excellent        string `json:"excellent"`
	Good             string `json:"good"`
	Satisfactory     string `json:"satisfactory"`
	NeedsImprovement string `json:"needs_improvement"`
}

type RubricCriterion struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Points      float64           `json:"points"`
	Levels      LevelDescriptions `json:"levels"`
}

func (c RubricCriterion) Validate(field string) error {
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Field: field + ".title", Msg: "criterion title required"}
	}
	if c.Points <= 0 {
		return &ValidationError{Field: field + ".points", Msg: "points must be positive"}
	}
	return nil
}

// Award converts a selected level into whole points for this criterion.
func (c RubricCriterion) Award(level RubricLevel) float64 {
	frac, ok := LevelFraction[level]
	if !ok {
		return 0
	}
	return math.Round(c.Points * frac)
}
