package db

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_MigratesToLatest(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	version, dirty, err := db.MigrateVersion(MigrationsFS())
	require.NoError(t, err)
	latest, err := LatestMigrationVersion(MigrationsFS())
	require.NoError(t, err)
	assert.Equal(t, latest, version)
	assert.False(t, dirty)

	// Reopening an up-to-date database is a no-op.
	again, err := NewDB(db.Path())
	require.NoError(t, err)
	again.Close()
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, db.MigrateDown(MigrationsFS()))
	version, _, err := db.MigrateVersion(MigrationsFS())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='rep_events'`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepCounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	counts, err := db.LoadRepCounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)

	require.NoError(t, db.SaveRepCounts(ctx, map[string]int{"barbell squat": 3, "push-up": 1}))
	require.NoError(t, db.SaveRepCounts(ctx, map[string]int{"barbell squat": 4}))

	counts, err = db.LoadRepCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"barbell squat": 4}, counts)
}

func TestWorkouts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	first, err := db.RecordWorkout(ctx, Workout{Exercise: "barbell squat", Score: 80, Date: base})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, err = db.RecordWorkout(ctx, Workout{Exercise: " push-up ", Score: 10, Date: base.Add(time.Hour)})
	require.NoError(t, err)

	_, err = db.RecordWorkout(ctx, Workout{Exercise: "  "})
	assert.ErrorIs(t, err, ErrInvalidWorkout)

	all, err := db.ListWorkouts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "push-up", all[0].Exercise)
	assert.Equal(t, first, all[1])

	limited, err := db.ListWorkouts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	at := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	score := 70.0

	require.NoError(t, db.InsertRepEvent(ctx, RepEventRow{SessionID: "s1", Exercise: "push-up", Count: 1, Angle: 40, OccurredAt: at}))
	require.NoError(t, db.InsertRepEvent(ctx, RepEventRow{SessionID: "s1", Exercise: "push-up", Count: 2, Angle: 42, FormScore: &score, OccurredAt: at.Add(3 * time.Second)}))
	require.NoError(t, db.InsertRepEvent(ctx, RepEventRow{SessionID: "s2", Exercise: "pull-up", Count: 1, OccurredAt: at}))

	got, err := db.RepEvents(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].FormScore)
	require.NotNil(t, got[1].FormScore)
	assert.Equal(t, 70.0, *got[1].FormScore)
	assert.Equal(t, 2, got[1].Count)
	assert.True(t, got[1].OccurredAt.Equal(at.Add(3*time.Second)))
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	mux := http.NewServeMux()
	debug, err := db.AttachAdminRoutes(mux)
	require.NoError(t, err)
	require.NotNil(t, debug)

	req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code, "/debug/tailsql/ should be registered")
}

func TestRunMigrateCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "version 2 of 2")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"down"}, path, &out))
	assert.Contains(t, out.String(), "version 1 of 2")

	assert.ErrorIs(t, RunMigrateCommand(nil, path, &out), ErrUsage)
	assert.ErrorIs(t, RunMigrateCommand([]string{"sideways"}, path, &out), ErrUsage)
	assert.ErrorIs(t, RunMigrateCommand([]string{"force"}, path, &out), ErrUsage)
}
