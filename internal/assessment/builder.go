package assessment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Builder assembles a draft assessment in memory. Nothing is persisted until
// Build succeeds; the caller hands the returned value to a store. Removing
// the option currently marked correct clears the selection instead of
// defaulting to option 0, so the author has to re-select before Build passes.
type Builder struct {
	draft Assessment
}

func NewQuizBuilder(title string) *Builder {
	return &Builder{draft: Assessment{
		ID:        uuid.NewString(),
		Title:     title,
		Type:      TypeQuiz,
		Status:    StatusDraft,
		CreatedAt: time.Now().UTC(),
	}}
}

func NewAssignmentBuilder(title string) *Builder {
	return &Builder{draft: Assessment{
		ID:        uuid.NewString(),
		Title:     title,
		Type:      TypeAssignment,
		Status:    StatusDraft,
		CreatedAt: time.Now().UTC(),
	}}
}

// Edit reopens an existing assessment for modification.
func Edit(a Assessment) *Builder {
	cp := a
	cp.Questions = append([]Question(nil), a.Questions...)
	cp.Rubric = append([]RubricCriterion(nil), a.Rubric...)
	return &Builder{draft: cp}
}

// Draft returns a copy of the current draft for previewing.
func (b *Builder) Draft() Assessment {
	cp := b.draft
	cp.Questions = append([]Question(nil), b.draft.Questions...)
	cp.Rubric = append([]RubricCriterion(nil), b.draft.Rubric...)
	cp.TotalPoints = cp.SumPoints()
	return cp
}

func (b *Builder) SetTitle(title string) *Builder      { b.draft.Title = title; return b }
func (b *Builder) SetDescription(d string) *Builder    { b.draft.Description = d; return b }
func (b *Builder) SetInstructions(in string) *Builder  { b.draft.Instructions = in; return b }
func (b *Builder) SetTimeLimitMin(min int) *Builder    { b.draft.TimeLimitMin = min; return b }
func (b *Builder) SetDueDate(t time.Time) *Builder     { b.draft.DueDate = &t; return b }
func (b *Builder) SetShuffleQuestions(v bool) *Builder { b.draft.ShuffleQuestions = v; return b }
func (b *Builder) SetShowCorrectAnswers(v bool) *Builder {
	b.draft.ShowCorrectAnswers = v
	return b
}

func (b *Builder) SetPassingScorePercent(p int) *Builder {
	b.draft.PassingScorePercent = &p
	return b
}

// SetAttemptsAllowed bounds attempts; call SetUnlimitedAttempts to clear.
func (b *Builder) SetAttemptsAllowed(n int) *Builder {
	b.draft.AttemptsAllowed = &n
	return b
}

func (b *Builder) SetUnlimitedAttempts() *Builder {
	b.draft.AttemptsAllowed = nil
	return b
}

func (b *Builder) SetFileConstraints(fc FileConstraints) *Builder {
	b.draft.FileConstraints = &fc
	return b
}

func (b *Builder) AddQuestion(q Question) *Builder {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	b.draft.Questions = append(b.draft.Questions, q)
	return b
}

func (b *Builder) RemoveQuestion(id string) *Builder {
	out := b.draft.Questions[:0]
	for _, q := range b.draft.Questions {
		if q.ID != id {
			out = append(out, q)
		}
	}
	b.draft.Questions = out
	return b
}

// AddOption appends an option to an mcq question.
func (b *Builder) AddOption(questionID, option string) *Builder {
	for i := range b.draft.Questions {
		if b.draft.Questions[i].ID == questionID {
			b.draft.Questions[i].Options = append(b.draft.Questions[i].Options, option)
			return b
		}
	}
	return b
}

// RemoveOption deletes an option by index and reindexes the correct-answer
// selection. Deleting the currently-correct option clears the selection
// entirely rather than silently pointing at another option.
func (b *Builder) RemoveOption(questionID string, index int) *Builder {
	for i := range b.draft.Questions {
		q := &b.draft.Questions[i]
		if q.ID != questionID {
			continue
		}
		if index < 0 || index >= len(q.Options) {
			return b
		}
		q.Options = append(q.Options[:index], q.Options[index+1:]...)
		if q.CorrectChoice != nil {
			switch {
			case *q.CorrectChoice == index:
				q.CorrectChoice = nil
			case *q.CorrectChoice > index:
				v := *q.CorrectChoice - 1
				q.CorrectChoice = &v
			}
		}
		return b
	}
	return b
}

// SelectCorrect marks an mcq option as the correct answer.
func (b *Builder) SelectCorrect(questionID string, index int) *Builder {
	for i := range b.draft.Questions {
		if b.draft.Questions[i].ID == questionID {
			b.draft.Questions[i].CorrectChoice = &index
			return b
		}
	}
	return b
}

func (b *Builder) AddCriterion(c RubricCriterion) *Builder {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	b.draft.Rubric = append(b.draft.Rubric, c)
	return b
}

func (b *Builder) RemoveCriterion(id string) *Builder {
	out := b.draft.Rubric[:0]
	for _, c := range b.draft.Rubric {
		if c.ID != id {
			out = append(out, c)
		}
	}
	b.draft.Rubric = out
	return b
}

// PreviewPoints shows what each level would award per criterion, read from
// the same table the scoring engine uses.
func (b *Builder) PreviewPoints(criterionID string) (map[RubricLevel]float64, error) {
	for _, c := range b.draft.Rubric {
		if c.ID == criterionID {
			out := make(map[RubricLevel]float64, len(LevelFraction))
			for lvl := range LevelFraction {
				out[lvl] = c.Award(lvl)
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("criterion %q not in draft", criterionID)
}

// Build finalizes the draft as a valid draft-status assessment.
func (b *Builder) Build() (Assessment, error) {
	return b.build(StatusDraft)
}

// BuildPublished finalizes and publishes in one step, enforcing the
// publish-time invariants (non-empty question/criterion list).
func (b *Builder) BuildPublished() (Assessment, error) {
	return b.build(StatusPublished)
}

func (b *Builder) build(status Status) (Assessment, error) {
	a := b.Draft()
	a.Status = status
	if status == StatusPublished {
		now := time.Now().UTC()
		a.PublishedAt = &now
	}
	if err := a.Validate(); err != nil {
		return Assessment{}, err
	}
	return a, nil
}
