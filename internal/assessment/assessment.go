package assessment

import (
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	TypeQuiz       Type = "quiz"
	TypeAssignment Type = "assignment"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// FileConstraints bounds what an assignment submission may attach.
type FileConstraints struct {
	AllowedExts []string `json:"allowed_exts,omitempty"` // e.g. ["pdf","docx"]; empty = any
	MaxSizeMB   int      `json:"max_size_mb,omitempty"`  // 0 = unlimited
}

// AllowsExt matches the file name's extension against AllowedExts
// (case-insensitive, leading dot ignored).
func (fc FileConstraints) AllowsExt(name string) bool {
	if len(fc.AllowedExts) == 0 {
		return true
	}
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = strings.ToLower(name[i+1:])
	}
	for _, a := range fc.AllowedExts {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}

func (fc FileConstraints) WithinSize(sizeBytes int64) bool {
	return fc.MaxSizeMB <= 0 || sizeBytes <= int64(fc.MaxSizeMB)*1024*1024
}

// Assessment is a quiz (question list) or an assignment (rubric + submission
// constraints). It owns its questions/criteria by composition.
type Assessment struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Type         Type   `json:"type"`
	Status       Status `json:"status"`

	TotalPoints         float64    `json:"total_points"`
	TimeLimitMin        int        `json:"time_limit_min,omitempty"`
	PassingScorePercent *int       `json:"passing_score_percent,omitempty"` // quiz only
	AttemptsAllowed     *int       `json:"attempts_allowed,omitempty"`      // nil = unlimited
	DueDate             *time.Time `json:"due_date,omitempty"`

	Questions []Question        `json:"questions,omitempty"` // quiz
	Rubric    []RubricCriterion `json:"rubric,omitempty"`    // assignment

	FileConstraints *FileConstraints `json:"file_constraints,omitempty"` // assignment

	ShuffleQuestions   bool `json:"shuffle_questions,omitempty"`
	ShowCorrectAnswers bool `json:"show_correct_answers,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// SumPoints recomputes the points total from the constituent parts.
func (a Assessment) SumPoints() float64 {
	sum := 0.0
	switch a.Type {
	case TypeQuiz:
		for _, q := range a.Questions {
			sum += q.Points
		}
	case TypeAssignment:
		for _, c := range a.Rubric {
			sum += c.Points
		}
	}
	return sum
}

// Validate enforces the construction invariants. Stores must call this
// before persisting; the builder calls it on Build.
func (a Assessment) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Msg: "title required"}
	}
	switch a.Type {
	case TypeQuiz, TypeAssignment:
	default:
		return &ValidationError{Field: "type", Msg: "type must be quiz or assignment"}
	}
	switch a.Status {
	case StatusDraft, StatusPublished, StatusArchived:
	default:
		return &ValidationError{Field: "status", Msg: "unknown status"}
	}

	if a.Type == TypeQuiz {
		if len(a.Rubric) > 0 {
			return &ValidationError{Field: "rubric", Msg: "quiz cannot carry a rubric"}
		}
		seen := map[string]bool{}
		for i, q := range a.Questions {
			if err := q.Validate(fmt.Sprintf("questions[%d]", i)); err != nil {
				return err
			}
			if seen[q.ID] {
				return &ValidationError{Field: fmt.Sprintf("questions[%d].id", i), Msg: "duplicate question id"}
			}
			seen[q.ID] = true
		}
		if a.PassingScorePercent != nil && (*a.PassingScorePercent < 0 || *a.PassingScorePercent > 100) {
			return &ValidationError{Field: "passing_score_percent", Msg: "must be between 0 and 100"}
		}
	} else {
		if len(a.Questions) > 0 {
			return &ValidationError{Field: "questions", Msg: "assignment cannot carry questions"}
		}
		if a.PassingScorePercent != nil {
			return &ValidationError{Field: "passing_score_percent", Msg: "passing score applies to quizzes only"}
		}
		seen := map[string]bool{}
		for i, c := range a.Rubric {
			if err := c.Validate(fmt.Sprintf("rubric[%d]", i)); err != nil {
				return err
			}
			if seen[c.ID] {
				return &ValidationError{Field: fmt.Sprintf("rubric[%d].id", i), Msg: "duplicate criterion id"}
			}
			seen[c.ID] = true
		}
	}

	if a.AttemptsAllowed != nil && *a.AttemptsAllowed < 1 {
		return &ValidationError{Field: "attempts_allowed", Msg: "attempts_allowed must be at least 1"}
	}

	if a.Status == StatusPublished {
		if a.Type == TypeQuiz && len(a.Questions) == 0 {
			return &ValidationError{Field: "questions", Msg: "cannot publish a quiz with no questions"}
		}
		if a.Type == TypeAssignment && len(a.Rubric) == 0 {
			return &ValidationError{Field: "rubric", Msg: "cannot publish an assignment with no criteria"}
		}
	}

	if got := a.SumPoints(); a.TotalPoints != got {
		return &ValidationError{Field: "total_points", Msg: fmt.Sprintf("total_points %.2f does not match parts sum %.2f", a.TotalPoints, got)}
	}
	return nil
}

// Sanitize returns a student-safe copy with answer material stripped.
func (a Assessment) Sanitize() Assessment {
	if a.Type != TypeQuiz {
		return a
	}
	qs := make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		qs[i] = q.Sanitize()
	}
	a.Questions = qs
	return a
}

// Question looks up a question by id.
func (a Assessment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Criterion looks up a rubric criterion by id.
func (a Assessment) Criterion(id string) (RubricCriterion, bool) {
	for _, c := range a.Rubric {
		if c.ID == id {
			return c, true
		}
	}
	return RubricCriterion{}, false
}
