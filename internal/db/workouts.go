package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidWorkout is returned for a workout without an exercise name.
var ErrInvalidWorkout = errors.New("workout requires an exercise")

// Workout is one completed exercise set in the history.
type Workout struct {
	ID       string    `json:"id"`
	Exercise string    `json:"exercise"`
	Score    float64   `json:"score"`
	Date     time.Time `json:"date"`
}

// RecordWorkout stores w and returns it with a fresh ID. A zero Date is
// set to now.
func (db *DB) RecordWorkout(ctx context.Context, w Workout) (Workout, error) {
	w.Exercise = strings.TrimSpace(w.Exercise)
	if w.Exercise == "" {
		return Workout{}, ErrInvalidWorkout
	}
	if w.Date.IsZero() {
		w.Date = time.Now()
	}
	w.Date = w.Date.UTC()
	w.ID = uuid.NewString()

	_, err := db.ExecContext(ctx,
		`INSERT INTO workouts (workout_id, exercise, score, performed_at) VALUES (?, ?, ?, ?)`,
		w.ID, w.Exercise, w.Score, w.Date.Format(timeLayout),
	)
	if err != nil {
		return Workout{}, fmt.Errorf("insert workout: %w", err)
	}
	return w, nil
}

// ListWorkouts returns up to limit workouts, newest first. A limit of zero
// or less returns all of them.
func (db *DB) ListWorkouts(ctx context.Context, limit int) ([]Workout, error) {
	query := `SELECT workout_id, exercise, score, performed_at FROM workouts ORDER BY performed_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	workouts := []Workout{}
	for rows.Next() {
		var w Workout
		var date string
		if err := rows.Scan(&w.ID, &w.Exercise, &w.Score, &date); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		if w.Date, err = time.Parse(timeLayout, date); err != nil {
			return nil, fmt.Errorf("parse workout date %q: %w", date, err)
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}
