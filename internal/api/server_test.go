package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/formsense/internal/config"
	"github.com/banshee-data/formsense/internal/correction"
	"github.com/banshee-data/formsense/internal/db"
	"github.com/banshee-data/formsense/internal/httputil"
	"github.com/banshee-data/formsense/internal/metrics"
	"github.com/banshee-data/formsense/internal/monitor"
	"github.com/banshee-data/formsense/internal/pose"
	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/session"
	"github.com/banshee-data/formsense/internal/testutil"
	"github.com/banshee-data/formsense/internal/timeutil"
)

type fixture struct {
	sess    *session.Session
	store   *db.DB
	metrics *metrics.Metrics
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "formsense.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := timeutil.NewMockClock(testutil.FixtureTime)
	cfg := session.ConfigFromTuning(config.EmptyTuningConfig())
	cfg.Clock = clock
	m := metrics.New()
	profiles := reps.DefaultProfiles()
	sess := session.New(cfg, session.Deps{
		Counter: reps.NewCounter(reps.CounterConfig{Profiles: profiles, Clock: clock}),
		Store:   store,
		Metrics: m,
	})
	srv := NewServer(sess, Options{
		Workouts: store,
		Metrics:  m,
		Charts:   &monitor.Handlers{Session: sess, Profiles: profiles},
	})
	return &fixture{sess: sess, store: store, metrics: m, handler: srv.ServeMux()}
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestFrames_CountsRep(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var last session.Report
	var frames []pose.Pose
	for i := 0; i < 3; i++ {
		frames = append(frames, testutil.ArmPose(170))
	}
	for i := 0; i < 8; i++ {
		frames = append(frames, testutil.ArmPose(30))
	}
	for _, p := range frames {
		rec := f.do(t, http.MethodPost, "/api/frames", session.Frame{Exercise: "Push-Up", Score: 0.9, Keypoints: p})
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		decode(t, rec, &last)
	}
	assert.Equal(t, session.StatusReady, last.Status)
	assert.Equal(t, "push-up", last.Exercise)
	require.NotNil(t, last.Rep)
	assert.Equal(t, 1, last.Rep.Count)

	rec := f.do(t, http.MethodGet, "/api/reps", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var counts repsResponse
	decode(t, rec, &counts)
	assert.Equal(t, 1, counts.Counts["push-up"])

	saved, err := f.store.LoadRepCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, saved["push-up"])
}

func TestFrames_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"malformed", http.MethodPost, "{", http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"exercise":"squat","bogus":1}`, http.StatusBadRequest},
		{"missing exercise", http.MethodPost, `{"score":0.9}`, http.StatusBadRequest},
		{"no pose", http.MethodPost, `{"exercise":"squat","score":0.9}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/frames", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)
			testutil.AssertStatusCode(t, rec.Code, tt.want)
		})
	}
}

func TestRepsReset(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.sess.ProcessFrame(context.Background(), session.Frame{Exercise: "push-up", Score: 0.9, Keypoints: testutil.ArmPose(170)})

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"wrong method", http.MethodGet, "/api/reps/reset?exercise=push-up", http.StatusMethodNotAllowed},
		{"missing exercise", http.MethodPost, "/api/reps/reset", http.StatusBadRequest},
		{"unknown exercise", http.MethodPost, "/api/reps/reset?exercise=juggling", http.StatusNotFound},
		{"known exercise", http.MethodPost, "/api/reps/reset?exercise=Push-Up", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.target, nil)
			testutil.AssertStatusCode(t, rec.Code, tt.want)
		})
	}
}

func TestExercises(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/exercises", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var got map[string][]string
	decode(t, rec, &got)
	assert.Contains(t, got["exercises"], "push-up")
	assert.Contains(t, got["exercises"], "barbell squat")
}

func TestClassify_NotConfigured(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/classify", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotImplemented)
	rec = f.do(t, http.MethodGet, "/api/classify", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestCorrectPose(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	t.Run("echoes pose", func(t *testing.T) {
		t.Parallel()
		rec := f.do(t, http.MethodPost, "/api/correct-pose", correctPoseRequest{
			Pose:     []correction.Point{{X: 0.1, Y: 0.2, Z: 0.3}, {X: -1, Y: 1}},
			Exercise: "squat",
		})
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		var got correctPoseResponse
		decode(t, rec, &got)
		want := correctPoseResponse{
			CorrectedPose:      [][3]float64{{0.1, 0.2, 0.3}, {-1, 1, 0}},
			ExerciseConfidence: 0.8,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
	})

	for _, body := range []interface{}{
		map[string]interface{}{"exercise": "squat"},
		map[string]interface{}{"pose": []correction.Point{{X: 1}}},
	} {
		rec := f.do(t, http.MethodPost, "/api/correct-pose", body)
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
		assert.Contains(t, rec.Body.String(), "Pose and exercise are required")
	}
}

// The stub must speak the same protocol the correction client expects.
func TestCorrectPose_ClientRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ts := httptest.NewServer(f.handler)
	t.Cleanup(ts.Close)

	c := correction.NewClient(httputil.NewStandardClient(ts.Client()), ts.URL+"/api/correct-pose", nil)
	in := testutil.StandingPose()
	res, err := c.Correct(context.Background(), "barbell squat", in)
	require.NoError(t, err)

	assert.Equal(t, "barbell squat", res.Exercise)
	assert.Equal(t, []float64{0.8}, res.Confidence)
	want := pose.ToReference(in)
	if diff := cmp.Diff(want, res.Pose, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("corrected pose mismatch (-want +got):\n%s", diff)
	}
}

func TestWorkoutHistory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/workout-history", map[string]interface{}{
		"exercise": "barbell squat",
		"score":    87.5,
		"date":     "2025-03-14T09:00:00Z",
	})
	testutil.AssertStatusCode(t, rec.Code, http.StatusCreated)
	var saved db.Workout
	decode(t, rec, &saved)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "barbell squat", saved.Exercise)

	rec = f.do(t, http.MethodPost, "/api/workout-history", map[string]interface{}{"score": 1})
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	rec = f.do(t, http.MethodGet, "/api/workout-history?limit=10", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var list []db.Workout
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.True(t, saved.Date.Equal(testutil.FixtureTime))

	rec = f.do(t, http.MethodGet, "/api/workout-history?limit=-1", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	rec = f.do(t, http.MethodDelete, "/api/workout-history", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestWorkoutHistory_NotConfigured(t *testing.T) {
	t.Parallel()
	srv := NewServer(session.New(session.Config{}, session.Deps{}), Options{})
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workout-history", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestShowConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/config", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var got map[string]interface{}
	decode(t, rec, &got)
	assert.Equal(t, 0.4, got["smoothing_factor"])
	assert.Contains(t, got, "rep_cooldown")
}

func TestMetricsAndCharts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/frames", session.Frame{Exercise: "push-up", Score: 0.9, Keypoints: testutil.ArmPose(170)})

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "formsense_frames_total")
	assert.Contains(t, rec.Body.String(), `route="/api/frames"`)

	rec = f.do(t, http.MethodGet, "/api/charts/reps", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	rec = f.do(t, http.MethodGet, "/api/charts/angles?exercise=push-up", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	rec = f.do(t, http.MethodGet, "/api/charts/angles.png", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
}

func TestStatusCodeColor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, colorBoldGreen+"200"+colorReset, statusCodeColor(200))
	assert.Equal(t, colorYellow+"304"+colorReset, statusCodeColor(304))
	assert.Equal(t, colorBoldRed+"404"+colorReset, statusCodeColor(404))
	assert.Equal(t, "100", statusCodeColor(100))
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusTeapot)
}
