package correction

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/formsense/internal/config"
	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/monitoring"
	"github.com/banshee-data/formsense/internal/pose"
)

// Corrector is satisfied by Client.
type Corrector interface {
	Correct(ctx context.Context, exercise string, p pose.Pose) (Result, error)
}

// WorkerConfig holds the Worker parameters.
type WorkerConfig struct {
	// Timeout bounds each call. Zero means no per-call deadline.
	Timeout time.Duration
	// OnResult, when set, observes every call outcome.
	OnResult func(Result, error)
}

// WorkerConfigFromTuning derives the worker parameters from tuning.
func WorkerConfigFromTuning(cfg *config.TuningConfig) WorkerConfig {
	return WorkerConfig{Timeout: cfg.GetCorrectionTimeout()}
}

type job struct {
	exercise string
	pose     pose.Pose
}

// Worker calls a Corrector in the background. Submit never blocks: a frame
// submitted while a call is in flight replaces the one waiting, and the
// replaced frame is counted as dropped.
type Worker struct {
	corrector Corrector
	cfg       WorkerConfig
	logf      func(format string, v ...interface{})

	mu       sync.Mutex
	pending  *job
	latest   map[string]Result
	drops    uint64
	failures uint64
	calls    uint64

	wake chan struct{}
}

// NewWorker returns a Worker. Call Run to start it.
func NewWorker(c Corrector, cfg WorkerConfig) *Worker {
	return &Worker{
		corrector: c,
		cfg:       cfg,
		logf:      monitoring.Component("correction"),
		latest:    make(map[string]Result),
		wake:      make(chan struct{}, 1),
	}
}

// Submit offers a frame for correction. The pose is copied.
func (w *Worker) Submit(exercise string, p pose.Pose) {
	j := &job{exercise: form.NormalizeName(exercise), pose: p.Clone()}
	w.mu.Lock()
	if w.pending != nil {
		w.drops++
	}
	w.pending = j
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run processes submitted frames until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.wake:
		}
		j := w.take()
		if j == nil {
			continue
		}
		w.call(ctx, j)
	}
}

func (w *Worker) take() *job {
	w.mu.Lock()
	defer w.mu.Unlock()
	j := w.pending
	w.pending = nil
	return j
}

func (w *Worker) call(ctx context.Context, j *job) {
	callCtx := ctx
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}
	res, err := w.corrector.Correct(callCtx, j.exercise, j.pose)

	w.mu.Lock()
	w.calls++
	if err != nil {
		w.failures++
	} else {
		w.latest[j.exercise] = res
	}
	w.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		w.logf("%s: %v", j.exercise, err)
	}
	if w.cfg.OnResult != nil {
		w.cfg.OnResult(res, err)
	}
}

// Latest returns the most recent successful correction for exercise.
func (w *Worker) Latest(exercise string) (Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.latest[form.NormalizeName(exercise)]
	return r, ok
}

// Forget drops the stored correction for exercise.
func (w *Worker) Forget(exercise string) {
	w.mu.Lock()
	delete(w.latest, form.NormalizeName(exercise))
	w.mu.Unlock()
}

// WorkerStats is a point-in-time view of Worker counters.
type WorkerStats struct {
	Calls    uint64
	Failures uint64
	Drops    uint64
}

// Stats returns the worker counters.
func (w *Worker) Stats() WorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkerStats{Calls: w.calls, Failures: w.failures, Drops: w.drops}
}
