// Package recorder delivers accepted repetitions to persistence sinks.
//
// Sinks are fire-and-forget from the frame loop's point of view: wrap them
// in an Async so a slow broker or database never delays a frame.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// RepEvent describes one accepted repetition.
type RepEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Exercise  string    `json:"exercise"`
	Count     int       `json:"count"`
	Angle     float64   `json:"angle"`
	FormScore *float64  `json:"form_score,omitempty"`
	Time      time.Time `json:"time"`
}

// Payload returns the JSON encoding used by the broker sinks.
func (e RepEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// Recorder persists rep events.
type Recorder interface {
	Record(ctx context.Context, e RepEvent) error
}

// Multi fans an event out to every recorder and joins their errors.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, e RepEvent) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, RepEvent) error { return nil }
