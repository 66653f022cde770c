package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepEventRow is one accepted repetition as stored in rep_events.
type RepEventRow struct {
	ID         string
	SessionID  string
	Exercise   string
	Count      int
	Angle      float64
	FormScore  *float64
	OccurredAt time.Time
}

// InsertRepEvent stores r. An empty ID is replaced by a new UUID.
func (db *DB) InsertRepEvent(ctx context.Context, r RepEventRow) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	var score sql.NullFloat64
	if r.FormScore != nil {
		score = sql.NullFloat64{Float64: *r.FormScore, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO rep_events (event_id, session_id, exercise, count, angle, form_score, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SessionID, r.Exercise, r.Count, r.Angle, score, r.OccurredAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert rep event: %w", err)
	}
	return nil
}

// RepEvents returns the events of a session in the order they occurred.
func (db *DB) RepEvents(ctx context.Context, sessionID string) ([]RepEventRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT event_id, session_id, exercise, count, angle, form_score, occurred_at
		 FROM rep_events WHERE session_id = ? ORDER BY occurred_at, count`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query rep events: %w", err)
	}
	defer rows.Close()

	var out []RepEventRow
	for rows.Next() {
		var r RepEventRow
		var score sql.NullFloat64
		var at string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Exercise, &r.Count, &r.Angle, &score, &at); err != nil {
			return nil, fmt.Errorf("scan rep event: %w", err)
		}
		if score.Valid {
			v := score.Float64
			r.FormScore = &v
		}
		if r.OccurredAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse rep event time %q: %w", at, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
