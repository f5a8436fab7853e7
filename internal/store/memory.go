package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/submission"
)

// MemoryStore backs tests and single-node offline deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	engine      *grading.Engine
	assessments map[string]assessment.Assessment
	submissions map[string]submission.Submission
	drafts      map[string]grading.Input // submission id -> saved grading draft
}

func NewMemoryStore(engine *grading.Engine) *MemoryStore {
	return &MemoryStore{
		engine:      engine,
		assessments: map[string]assessment.Assessment{},
		submissions: map[string]submission.Submission{},
		drafts:      map[string]grading.Input{},
	}
}

func (m *MemoryStore) PutAssessment(_ context.Context, a assessment.Assessment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = a
	return nil
}

func (m *MemoryStore) GetAssessment(_ context.Context, id string) (assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return assessment.Assessment{}, ErrNotFound
	}
	return a.Sanitize(), nil
}

func (m *MemoryStore) GetAssessmentAuthoring(_ context.Context, id string) (assessment.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return assessment.Assessment{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) ListAssessments(_ context.Context, f AssessmentFilter) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.assessments))
	for _, a := range m.assessments {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Q != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(f.Q)) {
			continue
		}
		count := len(a.Questions)
		if a.Type == assessment.TypeAssignment {
			count = len(a.Rubric)
		}
		out = append(out, Summary{
			ID: a.ID, Title: a.Title, Type: a.Type, Status: a.Status,
			TotalPoints: a.TotalPoints, ItemCount: count,
			DueDate: a.DueDate, CreatedAt: a.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, f.Offset), nil
}

func (m *MemoryStore) SetAssessmentStatus(_ context.Context, id string, status assessment.Status) (assessment.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return assessment.Assessment{}, ErrNotFound
	}
	if !statusChangeAllowed(a.Status, status) {
		return assessment.Assessment{}, &assessment.ValidationError{Field: "status", Msg: "cannot move " + string(a.Status) + " to " + string(status)}
	}
	a.Status = status
	if status == assessment.StatusPublished {
		now := time.Now().UTC()
		a.PublishedAt = &now
	}
	if err := a.Validate(); err != nil {
		return assessment.Assessment{}, err
	}
	m.assessments[id] = a
	return a, nil
}

func (m *MemoryStore) DeleteAssessment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return ErrNotFound
	}
	delete(m.assessments, id)
	// Submissions reference the assessment by id; they go with it.
	for sid, s := range m.submissions {
		if s.AssessmentID == id {
			delete(m.submissions, sid)
			delete(m.drafts, sid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateSubmission(_ context.Context, in submission.Input, now time.Time) (submission.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[in.AssessmentID]
	if !ok {
		return submission.Submission{}, ErrNotFound
	}
	prior := 0
	for _, s := range m.submissions {
		if s.AssessmentID == in.AssessmentID && s.StudentID == in.StudentID {
			prior++
		}
	}
	sub, err := submission.New(a, in, prior, now)
	if err != nil {
		return submission.Submission{}, err
	}
	m.submissions[sub.ID] = sub
	return sub, nil
}

func (m *MemoryStore) GetSubmission(_ context.Context, id string) (submission.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return submission.Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) ListSubmissions(_ context.Context, assessmentID string, f SubmissionFilter) ([]submission.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]submission.Submission, 0)
	for _, s := range m.submissions {
		if s.AssessmentID != assessmentID {
			continue
		}
		if f.StudentID != "" && s.StudentID != f.StudentID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return paginate(out, f.Limit, f.Offset), nil
}

func (m *MemoryStore) GradingWorksheet(_ context.Context, submissionID string) ([]grading.WorksheetItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[submissionID]
	if !ok {
		return nil, ErrNotFound
	}
	a, ok := m.assessments[s.AssessmentID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.engine.Worksheet(a, s, m.drafts[submissionID]), nil
}

func (m *MemoryStore) ApplyGrades(_ context.Context, submissionID string, in grading.Input, gradedBy string, finalize bool) (submission.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[submissionID]
	if !ok {
		return submission.Submission{}, ErrNotFound
	}
	a, ok := m.assessments[s.AssessmentID]
	if !ok {
		return submission.Submission{}, ErrNotFound
	}

	merged := mergeInput(m.drafts[submissionID], in)
	g, err := m.engine.Grade(a, s, merged, finalize)
	if err != nil {
		return submission.Submission{}, err
	}
	m.drafts[submissionID] = merged

	if finalize {
		if err := s.Transition(submission.StatusGraded); err != nil {
			return submission.Submission{}, err
		}
		now := time.Now().UTC()
		s.Score = &g.TotalScore
		s.Percentage = &g.Percentage
		s.Passed = g.Passed
		s.Feedback = merged.Feedback
		s.GradedBy = gradedBy
		s.GradedAt = &now
		m.submissions[submissionID] = s
	}
	return s, nil
}

func (m *MemoryStore) ReleaseSubmission(_ context.Context, submissionID string) (submission.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[submissionID]
	if !ok {
		return submission.Submission{}, ErrNotFound
	}
	if err := s.Transition(submission.StatusReturned); err != nil {
		return submission.Submission{}, err
	}
	m.submissions[submissionID] = s
	return s, nil
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset > len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
