// Package session runs the per-frame pipeline for one user: gate, smooth,
// normalize, then evaluate form and count reps on the same normalized frame.
//
// ProcessFrame never fails. Anything that goes wrong for a single frame is
// reported in the returned Report and the stream carries on.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/formsense/internal/classify"
	"github.com/banshee-data/formsense/internal/config"
	"github.com/banshee-data/formsense/internal/correction"
	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/metrics"
	"github.com/banshee-data/formsense/internal/monitoring"
	"github.com/banshee-data/formsense/internal/pose"
	"github.com/banshee-data/formsense/internal/recorder"
	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/timeutil"
)

var (
	// ErrNoPose is returned by Recognize before any frame was processed.
	ErrNoPose = errors.New("session: no pose processed yet")
	// ErrNoRecognizer is returned by Recognize when no classifier is wired.
	ErrNoRecognizer = errors.New("session: exercise recognition not configured")
)

// Readiness and evaluation statuses reported per frame.
const (
	StatusReady         = "ready"
	StatusAdjust        = "adjust position"
	StatusNoPose        = "no pose"
	StatusUnknown       = "unknown exercise"
	StatusNoReference   = "awaiting correction"
	StatusLowVisibility = "insufficient visibility"
	StatusOccluded      = "occluded"
	StatusNoRepProfile  = "no rep profile"
	StatusUnavailable   = "unavailable"
)

// Frame is one observation from the pose source. An empty Keypoints slice
// means no person was detected.
type Frame struct {
	Exercise  string    `json:"exercise"`
	Score     float64   `json:"score"`
	Keypoints pose.Pose `json:"keypoints"`
}

// Report is what ProcessFrame produced for one frame.
type Report struct {
	Exercise   string          `json:"exercise"`
	Status     string          `json:"status"`
	Visibility pose.Visibility `json:"visibility"`
	Normalized bool            `json:"normalized"`
	Form       *form.Result    `json:"form,omitempty"`
	FormStatus string          `json:"form_status,omitempty"`
	Rep        *reps.Event     `json:"rep,omitempty"`
	RepStatus  string          `json:"rep_status,omitempty"`
	Corrected  bool            `json:"corrected"`
	Time       time.Time       `json:"time"`
}

// CountStore persists the exercise → count map.
type CountStore interface {
	LoadRepCounts(ctx context.Context) (map[string]int, error)
	SaveRepCounts(ctx context.Context, counts map[string]int) error
}

// Config holds the session tuning.
type Config struct {
	SmoothingFactor      float64
	MinPoseScore         float64
	ReadyVisibilityRatio float64
	CorrectionInterval   time.Duration
	AngleTrailSize       int
	Clock                timeutil.Clock
}

// ConfigFromTuning derives the session parameters from tuning.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		SmoothingFactor:      cfg.GetSmoothingFactor(),
		MinPoseScore:         cfg.GetMinPoseScore(),
		ReadyVisibilityRatio: cfg.GetReadyVisibilityRatio(),
		CorrectionInterval:   cfg.GetCorrectionInterval(),
		AngleTrailSize:       cfg.GetAngleTrailSize(),
		Clock:                timeutil.RealClock{},
	}
}

// Deps are the collaborators of a Session. Engine and Counter are
// required; the rest are optional.
type Deps struct {
	Engine      *form.Engine
	Counter     *reps.Counter
	Corrections *correction.Worker
	Store       CountStore
	Recorder    recorder.Recorder
	Recognizer  *classify.Recognizer
	Metrics     *metrics.Metrics
}

// Session serializes frames for one stream.
type Session struct {
	id   string
	cfg  Config
	deps Deps
	logf func(format string, v ...interface{})

	mu             sync.Mutex
	smoother       *pose.Smoother
	last           pose.Pose
	lastSubmission time.Time
	trails         map[string]*trail

	recognizeMu sync.Mutex
}

// New returns a Session with a fresh ID.
func New(cfg Config, deps Deps) *Session {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.AngleTrailSize <= 0 {
		cfg.AngleTrailSize = 300
	}
	if deps.Engine == nil {
		deps.Engine = form.NewEngine()
	}
	if deps.Counter == nil {
		deps.Counter = reps.NewCounter(reps.CounterConfig{Clock: cfg.Clock, Cooldown: reps.DefaultCooldown})
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.Nop{}
	}
	return &Session{
		id:       uuid.NewString(),
		cfg:      cfg,
		deps:     deps,
		logf:     monitoring.Component("session"),
		smoother: pose.NewSmoother(cfg.SmoothingFactor),
		trails:   make(map[string]*trail),
	}
}

// ID identifies the session in recorded events.
func (s *Session) ID() string { return s.id }

// Restore loads persisted counts into the counter.
func (s *Session) Restore(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}
	counts, err := s.deps.Store.LoadRepCounts(ctx)
	if err != nil {
		return err
	}
	s.deps.Counter.Restore(counts)
	return nil
}

// ProcessFrame runs the pipeline on f.
func (s *Session) ProcessFrame(ctx context.Context, f Frame) Report {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	exercise := form.NormalizeName(f.Exercise)
	r := Report{Exercise: exercise, Time: s.cfg.Clock.Now()}

	if len(f.Keypoints) == 0 {
		r.Status = StatusNoPose
		s.deps.Metrics.Frame(metrics.FrameNoPose, 0)
		return r
	}
	r.Visibility = pose.CheckVisibility(f.Keypoints)
	r.Visibility.Ready = r.Visibility.Ratio >= s.cfg.ReadyVisibilityRatio
	if f.Score < s.cfg.MinPoseScore {
		r.Status = StatusAdjust
		s.deps.Metrics.Frame(metrics.FrameLowScore, 0)
		return r
	}
	r.Status = r.Visibility.Status()

	smoothed := s.smoother.Apply(f.Keypoints)
	normalized, ok := pose.Normalize(smoothed)
	r.Normalized = ok
	s.last = normalized

	corrected := s.correction(exercise, normalized, r.Time)
	r.Corrected = corrected != nil

	var (
		formRes   form.Result
		formErr   error
		repEv     reps.Event
		repErr    error
		haveReps  = s.deps.Counter.Has(exercise)
		evaluated errgroup.Group
	)
	evaluated.Go(func() error {
		formRes, formErr = s.deps.Engine.Evaluate(exercise, normalized, corrected)
		return nil
	})
	if haveReps {
		evaluated.Go(func() error {
			repEv, repErr = s.deps.Counter.Check(exercise, normalized)
			return nil
		})
	}
	_ = evaluated.Wait()

	s.applyForm(&r, formRes, formErr)
	if haveReps {
		s.applyRep(ctx, &r, repEv, repErr)
	} else {
		r.RepStatus = StatusNoRepProfile
	}

	outcome := metrics.FrameProcessed
	if !ok {
		outcome = metrics.FrameUnnormalize
	}
	s.deps.Metrics.Frame(outcome, time.Since(start))
	return r
}

// correction returns the latest corrected pose for exercise, if any, and
// offers the current frame to the worker at most once per interval.
func (s *Session) correction(exercise string, p pose.Pose, now time.Time) pose.Pose {
	w := s.deps.Corrections
	if w == nil || !s.deps.Engine.Has(exercise) {
		return nil
	}
	if s.lastSubmission.IsZero() || now.Sub(s.lastSubmission) >= s.cfg.CorrectionInterval {
		w.Submit(exercise, p)
		s.lastSubmission = now
	}
	if res, ok := w.Latest(exercise); ok {
		return res.Pose
	}
	return nil
}

func (s *Session) applyForm(r *Report, res form.Result, err error) {
	switch {
	case errors.Is(err, form.ErrUnknownExercise):
		r.FormStatus = StatusUnknown
	case errors.Is(err, form.ErrNoReference):
		r.FormStatus = StatusNoReference
	case err != nil:
		s.logf("form %s: %v", r.Exercise, err)
		r.FormStatus = StatusUnavailable
	default:
		r.Form = &res
		if res.Checks == 0 {
			r.FormStatus = StatusLowVisibility
			return
		}
		s.deps.Metrics.FormScore(r.Exercise, res.Score, res.Scale)
	}
}

func (s *Session) applyRep(ctx context.Context, r *Report, ev reps.Event, err error) {
	if err != nil {
		s.logf("reps %s: %v", r.Exercise, err)
		r.RepStatus = StatusUnavailable
		return
	}
	r.Rep = &ev
	if ev.Skipped {
		r.RepStatus = StatusOccluded
		return
	}
	s.trailFor(r.Exercise).push(TrailPoint{Time: ev.Time, Angle: ev.Sample.Angle, Count: ev.Count})
	if !ev.Completed {
		return
	}
	s.deps.Metrics.Rep(r.Exercise, ev.Accepted)
	if !ev.Accepted {
		return
	}
	s.persist(ctx)

	event := recorder.RepEvent{
		ID:        uuid.NewString(),
		SessionID: s.id,
		Exercise:  r.Exercise,
		Count:     ev.Count,
		Angle:     ev.Sample.Angle,
		Time:      ev.Time,
	}
	if r.Form != nil && r.Form.Checks > 0 {
		score := r.Form.Score
		event.FormScore = &score
	}
	if err := s.deps.Recorder.Record(ctx, event); err != nil {
		s.logf("record %s rep %d: %v", r.Exercise, ev.Count, err)
	}
}

func (s *Session) persist(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}
	if err := s.deps.Store.SaveRepCounts(ctx, s.deps.Counter.Counts()); err != nil {
		s.logf("save rep counts: %v", err)
	}
}

// Reset clears one exercise's rep state and trail, and persists the counts.
func (s *Session) Reset(ctx context.Context, exercise string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := form.NormalizeName(exercise)
	if err := s.deps.Counter.Reset(key); err != nil {
		return err
	}
	delete(s.trails, key)
	if s.deps.Corrections != nil {
		s.deps.Corrections.Forget(key)
	}
	s.persist(ctx)
	return nil
}

// Counts returns the current rep counts.
func (s *Session) Counts() map[string]int {
	return s.deps.Counter.Counts()
}

// Exercises returns every exercise with a form rule or a rep profile.
func (s *Session) Exercises() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{s.deps.Engine.Exercises(), s.deps.Counter.Exercises()} {
		for _, name := range list {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Trail returns the recent rep-signal angles for exercise, oldest first.
func (s *Session) Trail(exercise string) []TrailPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trails[form.NormalizeName(exercise)]
	if !ok {
		return nil
	}
	return t.points()
}

// Recognize classifies the last processed pose. It runs outside the frame
// lock so a slow classifier never delays frames.
func (s *Session) Recognize(ctx context.Context) (classify.Prediction, error) {
	if s.deps.Recognizer == nil {
		return classify.Prediction{}, ErrNoRecognizer
	}
	s.mu.Lock()
	p := s.last.Clone()
	s.mu.Unlock()
	if p == nil {
		return classify.Prediction{}, ErrNoPose
	}
	s.recognizeMu.Lock()
	defer s.recognizeMu.Unlock()
	return s.deps.Recognizer.Recognize(ctx, p)
}

func (s *Session) trailFor(exercise string) *trail {
	t, ok := s.trails[exercise]
	if !ok {
		t = newTrail(s.cfg.AngleTrailSize)
		s.trails[exercise] = t
	}
	return t
}
