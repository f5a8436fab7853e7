package assessment

import "strings"

type QuestionType string

const (
	QuestionMCQ           QuestionType = "mcq"
	QuestionTrueFalse     QuestionType = "true_false"
	QuestionShortAnswer   QuestionType = "short_answer"
	QuestionEssay         QuestionType = "essay"
	QuestionVideo         QuestionType = "video"
	QuestionComprehension QuestionType = "comprehension"
)

// AutoGradable reports whether the engine can award credit without a grader.
func (t QuestionType) AutoGradable() bool {
	return t == QuestionMCQ || t == QuestionTrueFalse
}

func (t QuestionType) valid() bool {
	switch t {
	case QuestionMCQ, QuestionTrueFalse, QuestionShortAnswer,
		QuestionEssay, QuestionVideo, QuestionComprehension:
		return true
	}
	return false
}

type Question struct {
	ID     string       `json:"id"`
	Type   QuestionType `json:"type"`
	Prompt string       `json:"prompt"`

	// MCQ only. CorrectChoice indexes into Options.
	Options       []string `json:"options,omitempty"`
	CorrectChoice *int     `json:"correct_choice,omitempty"`

	// true_false only.
	CorrectBool *bool `json:"correct_bool,omitempty"`

	// short_answer only: accepted answers used to suggest a score to the
	// grader. The suggestion is never awarded automatically.
	AnswerKey []string `json:"answer_key,omitempty"`

	Explanation  string  `json:"explanation,omitempty"`
	Points       float64 `json:"points"`
	TimeLimitSec int     `json:"time_limit_sec,omitempty"`

	// video / comprehension payloads. VideoURL is an opaque reference
	// returned by the blob store.
	VideoURL string `json:"video_url,omitempty"`
	Passage  string `json:"passage,omitempty"`
}

// Validate checks the per-question invariants. The field prefix lets the
// assessment-level validator report positional errors ("questions[2]...").
func (q Question) Validate(field string) error {
	if !q.Type.valid() {
		return &ValidationError{Field: field + ".type", Msg: "unknown question type"}
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return &ValidationError{Field: field + ".prompt", Msg: "prompt required"}
	}
	if q.Points <= 0 {
		return &ValidationError{Field: field + ".points", Msg: "points must be positive"}
	}
	switch q.Type {
	case QuestionMCQ:
		if len(q.Options) < 2 {
			return &ValidationError{Field: field + ".options", Msg: "mcq needs at least 2 options"}
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return &ValidationError{Field: field + ".options", Msg: "options must be non-empty"}
			}
		}
		if q.CorrectChoice == nil {
			return &ValidationError{Field: field + ".correct_choice", Msg: "correct option not selected"}
		}
		if *q.CorrectChoice < 0 || *q.CorrectChoice >= len(q.Options) {
			return &ValidationError{Field: field + ".correct_choice", Msg: "correct option index out of range"}
		}
	case QuestionTrueFalse:
		if q.CorrectBool == nil {
			return &ValidationError{Field: field + ".correct_bool", Msg: "correct answer not selected"}
		}
	case QuestionVideo:
		if strings.TrimSpace(q.VideoURL) == "" {
			return &ValidationError{Field: field + ".video_url", Msg: "video reference required"}
		}
	case QuestionComprehension:
		if strings.TrimSpace(q.Passage) == "" {
			return &ValidationError{Field: field + ".passage", Msg: "passage required"}
		}
	}
	return nil
}

// Sanitize returns a copy safe to serve to students: answer keys and
// explanations are stripped.
func (q Question) Sanitize() Question {
	q.CorrectChoice = nil
	q.CorrectBool = nil
	q.AnswerKey = nil
	q.Explanation = ""
	return q
}
