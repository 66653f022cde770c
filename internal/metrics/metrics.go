// Package metrics exposes Prometheus collectors for the frame pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formsense"

// Frame outcomes.
const (
	FrameProcessed   = "processed"
	FrameLowScore    = "low_score"
	FrameNoPose      = "no_pose"
	FrameUnnormalize = "unnormalizable"
)

// Metrics holds the pipeline collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	frames        *prometheus.CounterVec
	frameDuration prometheus.Histogram
	reps          *prometheus.CounterVec
	formScore     *prometheus.HistogramVec
	corrections   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers the collectors, together with the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames received, by outcome.",
		}, []string{"outcome"}),
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent processing one frame.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}),
		reps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reps_total",
			Help:      "Completed repetitions, by exercise and whether the cooldown accepted them.",
		}, []string{"exercise", "accepted"}),
		formScore: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "form_score_ratio",
			Help:      "Form score as a fraction of the rule's scale.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"exercise"}),
		corrections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrections_total",
			Help:      "Pose-correction calls, by result.",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status.",
		}, []string{"route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request durations, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Frame counts one frame with the given outcome and processing time.
func (m *Metrics) Frame(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(outcome).Inc()
	if outcome == FrameProcessed {
		m.frameDuration.Observe(d.Seconds())
	}
}

// Rep counts a completed repetition.
func (m *Metrics) Rep(exercise string, accepted bool) {
	if m == nil {
		return
	}
	m.reps.WithLabelValues(exercise, strconv.FormatBool(accepted)).Inc()
}

// FormScore observes score out of scale. Non-positive scales are ignored.
func (m *Metrics) FormScore(exercise string, score, scale float64) {
	if m == nil || scale <= 0 {
		return
	}
	m.formScore.WithLabelValues(exercise).Observe(score / scale)
}

// Correction counts one correction call outcome.
func (m *Metrics) Correction(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.corrections.WithLabelValues(result).Inc()
}

// WatchCounter exposes a monotonically increasing value read from fn at
// scrape time, such as a drop count kept by another component.
func (m *Metrics) WatchCounter(name, help string, fn func() uint64) {
	if m == nil {
		return
	}
	promauto.With(m.reg).NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(fn()) })
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests and their duration under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
