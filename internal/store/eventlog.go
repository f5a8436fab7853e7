package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Audit event types appended by the SQL store.
const (
	EventAssessmentPublished = "AssessmentPublished"
	EventAssessmentArchived  = "AssessmentArchived"
	EventSubmissionCreated   = "SubmissionCreated"
	EventSubmissionGraded    = "SubmissionGraded"
	EventSubmissionReturned  = "SubmissionReturned"
)

// EventLog is an append-only audit trail of lifecycle transitions.
type EventLog struct{ db *sql.DB }

func NewEventLog(db *sql.DB) *EventLog { return &EventLog{db: db} }

// Append records one event. payload is marshalled to JSON; a nil payload
// stores an empty object.
func (l *EventLog) Append(ctx context.Context, typ, key string, payload any) error {
	data := []byte("{}")
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(data), time.Now().Unix())
	return err
}
