package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/classforge/assessd/internal/assessment"
	"github.com/classforge/assessd/internal/grading"
	"github.com/classforge/assessd/internal/submission"
)

// SQLStore persists assessments and submissions as JSON blobs with a few
// indexed columns for filtering, over sqlite or postgres.
type SQLStore struct {
	db     *sql.DB
	engine *grading.Engine
	events *EventLog
}

func NewSQLStore(db *sql.DB, engine *grading.Engine) *SQLStore {
	return &SQLStore{db: db, engine: engine, events: NewEventLog(db)}
}

func (s *SQLStore) PutAssessment(ctx context.Context, a assessment.Assessment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	var due *int64
	if a.DueDate != nil {
		v := a.DueDate.Unix()
		due = &v
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id,title,type,status,total_points,due_date,body_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, status=EXCLUDED.status,
		   total_points=EXCLUDED.total_points, due_date=EXCLUDED.due_date, body_json=EXCLUDED.body_json`,
		a.ID, a.Title, string(a.Type), string(a.Status), a.TotalPoints, due, string(body), a.CreatedAt.Unix())
	return err
}

func (s *SQLStore) getAssessment(ctx context.Context, id string) (assessment.Assessment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body_json FROM assessments WHERE id=$1`, id)
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return assessment.Assessment{}, ErrNotFound
		}
		return assessment.Assessment{}, err
	}
	var a assessment.Assessment
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return assessment.Assessment{}, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLStore) GetAssessment(ctx context.Context, id string) (assessment.Assessment, error) {
	a, err := s.getAssessment(ctx, id)
	if err != nil {
		return assessment.Assessment{}, err
	}
	return a.Sanitize(), nil
}

func (s *SQLStore) GetAssessmentAuthoring(ctx context.Context, id string) (assessment.Assessment, error) {
	return s.getAssessment(ctx, id)
}

func (s *SQLStore) ListAssessments(ctx context.Context, f AssessmentFilter) ([]Summary, error) {
	q := `SELECT body_json FROM assessments`
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Type != "" {
		conds = append(conds, "type="+arg(string(f.Type)))
	}
	if f.Status != "" {
		conds = append(conds, "status="+arg(string(f.Status)))
	}
	if f.Q != "" {
		conds = append(conds, "LOWER(title) LIKE "+arg("%"+strings.ToLower(f.Q)+"%"))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var a assessment.Assessment
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			return nil, err
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
	return out, rows.Err()
}

func (s *SQLStore) SetAssessmentStatus(ctx context.Context, id string, status assessment.Status) (assessment.Assessment, error) {
	a, err := s.getAssessment(ctx, id)
	if err != nil {
		return assessment.Assessment{}, err
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
	if err := s.PutAssessment(ctx, a); err != nil {
		return assessment.Assessment{}, err
	}

	typ := EventAssessmentPublished
	if status == assessment.StatusArchived {
		typ = EventAssessmentArchived
	}
	_ = s.events.Append(ctx, typ, a.ID, map[string]string{"title": a.Title})
	return a, nil
}

func (s *SQLStore) DeleteAssessment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateSubmission(ctx context.Context, in submission.Input, now time.Time) (submission.Submission, error) {
	a, err := s.getAssessment(ctx, in.AssessmentID)
	if err != nil {
		return submission.Submission{}, err
	}

	var prior int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE assessment_id=$1 AND student_id=$2`,
		in.AssessmentID, in.StudentID).Scan(&prior)
	if err != nil {
		return submission.Submission{}, err
	}

	sub, err := submission.New(a, in, prior, now)
	if err != nil {
		return submission.Submission{}, err
	}

	body, err := json.Marshal(sub)
	if err != nil {
		return submission.Submission{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id,assessment_id,student_id,status,attempt_number,submitted_at,body_json)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sub.ID, sub.AssessmentID, sub.StudentID, string(sub.Status), sub.AttemptNumber, sub.SubmittedAt.Unix(), string(body))
	if err != nil {
		return submission.Submission{}, err
	}

	_ = s.events.Append(ctx, EventSubmissionCreated, sub.ID, map[string]any{
		"assessment_id": sub.AssessmentID,
		"student_id":    sub.StudentID,
		"attempt":       sub.AttemptNumber,
		"late":          sub.Status == submission.StatusLate,
	})
	return sub, nil
}

func (s *SQLStore) getSubmission(ctx context.Context, id string) (submission.Submission, grading.Input, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body_json, grading_json FROM submissions WHERE id=$1`, id)
	var body, draft string
	if err := row.Scan(&body, &draft); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Submission{}, grading.Input{}, ErrNotFound
		}
		return submission.Submission{}, grading.Input{}, err
	}
	var sub submission.Submission
	if err := json.Unmarshal([]byte(body), &sub); err != nil {
		return submission.Submission{}, grading.Input{}, fmt.Errorf("decode submission %s: %w", id, err)
	}
	var in grading.Input
	if draft != "" {
		if err := json.Unmarshal([]byte(draft), &in); err != nil {
			return submission.Submission{}, grading.Input{}, fmt.Errorf("decode grading draft %s: %w", id, err)
		}
	}
	return sub, in, nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	sub, _, err := s.getSubmission(ctx, id)
	return sub, err
}

func (s *SQLStore) ListSubmissions(ctx context.Context, assessmentID string, f SubmissionFilter) ([]submission.Submission, error) {
	q := `SELECT body_json FROM submissions WHERE assessment_id=$1`
	args := []any{assessmentID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.StudentID != "" {
		q += " AND student_id=" + arg(f.StudentID)
	}
	if f.Status != "" {
		q += " AND status=" + arg(string(f.Status))
	}
	q += " ORDER BY submitted_at DESC"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []submission.Submission{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var sub submission.Submission
		if err := json.Unmarshal([]byte(body), &sub); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) GradingWorksheet(ctx context.Context, submissionID string) ([]grading.WorksheetItem, error) {
	sub, draft, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	a, err := s.getAssessment(ctx, sub.AssessmentID)
	if err != nil {
		return nil, err
	}
	return s.engine.Worksheet(a, sub, draft), nil
}

func (s *SQLStore) ApplyGrades(ctx context.Context, submissionID string, in grading.Input, gradedBy string, finalize bool) (submission.Submission, error) {
	sub, draft, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return submission.Submission{}, err
	}
	a, err := s.getAssessment(ctx, sub.AssessmentID)
	if err != nil {
		return submission.Submission{}, err
	}

	merged := mergeInput(draft, in)
	g, err := s.engine.Grade(a, sub, merged, finalize)
	if err != nil {
		return submission.Submission{}, err
	}

	draftJSON, err := json.Marshal(merged)
	if err != nil {
		return submission.Submission{}, err
	}

	if !finalize {
		_, err = s.db.ExecContext(ctx,
			`UPDATE submissions SET grading_json=$1 WHERE id=$2`, string(draftJSON), submissionID)
		return sub, err
	}

	if err := sub.Transition(submission.StatusGraded); err != nil {
		return submission.Submission{}, err
	}
	now := time.Now().UTC()
	sub.Score = &g.TotalScore
	sub.Percentage = &g.Percentage
	sub.Passed = g.Passed
	sub.Feedback = merged.Feedback
	sub.GradedBy = gradedBy
	sub.GradedAt = &now

	body, err := json.Marshal(sub)
	if err != nil {
		return submission.Submission{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE submissions SET status=$1, body_json=$2, grading_json=$3 WHERE id=$4`,
		string(sub.Status), string(body), string(draftJSON), submissionID)
	if err != nil {
		return submission.Submission{}, err
	}

	_ = s.events.Append(ctx, EventSubmissionGraded, sub.ID, map[string]any{
		"graded_by":  gradedBy,
		"score":      g.TotalScore,
		"max_score":  g.MaxScore,
		"percentage": g.Percentage,
	})
	return sub, nil
}

func (s *SQLStore) ReleaseSubmission(ctx context.Context, submissionID string) (submission.Submission, error) {
	sub, _, err := s.getSubmission(ctx, submissionID)
	if err != nil {
		return submission.Submission{}, err
	}
	if err := sub.Transition(submission.StatusReturned); err != nil {
		return submission.Submission{}, err
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return submission.Submission{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE submissions SET status=$1, body_json=$2 WHERE id=$3`,
		string(sub.Status), string(body), submissionID)
	if err != nil {
		return submission.Submission{}, err
	}
	_ = s.events.Append(ctx, EventSubmissionReturned, sub.ID, nil)
	return sub, nil
}
