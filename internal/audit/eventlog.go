// Package audit records attempt lifecycle events into an append-only
// log. Entries are diagnostic: writers treat failures as non-fatal.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAttemptStarted   = "AttemptStarted"
	EventAnswerSubmitted  = "AnswerSubmitted"
	EventAttemptCompleted = "AttemptCompleted"
	EventAnswerGraded     = "AnswerGraded"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: attempt or answer id
	DataJSON  string
	CreatedAt int64
}

// Log is the write side of the event log.
type Log interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, typ, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(payload), time.Now().Unix())
	return err
}

// MemLog collects events in memory; used in tests.
type MemLog struct {
	mu     sync.Mutex
	Events []Event
}

func (l *MemLog) Append(_ context.Context, typ, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, Event{
		Offset:    int64(len(l.Events) + 1),
		Type:      typ,
		Key:       key,
		DataJSON:  string(payload),
		CreatedAt: time.Now().Unix(),
	})
	return nil
}
