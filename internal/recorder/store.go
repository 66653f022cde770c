package recorder

import (
	"context"

	"github.com/banshee-data/formsense/internal/db"
)

type repEventStore interface {
	InsertRepEvent(ctx context.Context, r db.RepEventRow) error
}

// StoreRecorder writes events to the rep_events table.
type StoreRecorder struct {
	store repEventStore
}

// NewStoreRecorder records into store, usually a *db.DB.
func NewStoreRecorder(store repEventStore) *StoreRecorder {
	return &StoreRecorder{store: store}
}

// Record implements Recorder.
func (r *StoreRecorder) Record(ctx context.Context, e RepEvent) error {
	return r.store.InsertRepEvent(ctx, db.RepEventRow{
		ID:         e.ID,
		SessionID:  e.SessionID,
		Exercise:   e.Exercise,
		Count:      e.Count,
		Angle:      e.Angle,
		FormScore:  e.FormScore,
		OccurredAt: e.Time,
	})
}
