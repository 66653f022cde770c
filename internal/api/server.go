// Package api exposes the frame pipeline, rep counts and workout history
// over HTTP.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/formsense/internal/config"
	"github.com/banshee-data/formsense/internal/db"
	"github.com/banshee-data/formsense/internal/metrics"
	"github.com/banshee-data/formsense/internal/monitor"
	"github.com/banshee-data/formsense/internal/session"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// WorkoutStore records and lists workout history.
type WorkoutStore interface {
	RecordWorkout(ctx context.Context, w db.Workout) (db.Workout, error)
	ListWorkouts(ctx context.Context, limit int) ([]db.Workout, error)
}

// Server holds the HTTP handlers. Workouts, Metrics and Charts are
// optional; their routes answer 404 or are omitted when nil.
type Server struct {
	session  *session.Session
	workouts WorkoutStore
	tuning   *config.TuningConfig
	metrics  *metrics.Metrics
	charts   *monitor.Handlers
}

// Options carries the optional Server collaborators.
type Options struct {
	Workouts WorkoutStore
	Tuning   *config.TuningConfig
	Metrics  *metrics.Metrics
	Charts   *monitor.Handlers
}

// NewServer returns a Server for s.
func NewServer(s *session.Session, o Options) *Server {
	if o.Tuning == nil {
		o.Tuning = config.EmptyTuningConfig()
	}
	return &Server{
		session:  s,
		workouts: o.Workouts,
		tuning:   o.Tuning,
		metrics:  o.Metrics,
		charts:   o.Charts,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux registers every route on a fresh mux.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.handle(mux, "/api/frames", s.handleFrame)
	s.handle(mux, "/api/reps", s.handleReps)
	s.handle(mux, "/api/reps/reset", s.handleRepsReset)
	s.handle(mux, "/api/exercises", s.handleExercises)
	s.handle(mux, "/api/classify", s.handleClassify)
	s.handle(mux, "/api/correct-pose", handleCorrectPose)
	s.handle(mux, "/api/workout-history", s.handleWorkoutHistory)
	s.handle(mux, "/api/config", s.showConfig)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	if s.charts != nil {
		s.handle(mux, "/api/charts/reps", s.charts.ServeRepChart)
		s.handle(mux, "/api/charts/angles", s.charts.ServeAngleChart)
		s.handle(mux, "/api/charts/angles.png", s.charts.ServeAnglePNG)
	}
	return mux
}

func (s *Server) handle(mux *http.ServeMux, route string, h http.HandlerFunc) {
	mux.Handle(route, s.metrics.WrapHandler(route, h))
}
