// Package classify smooths exercise-classifier output and maps it back to
// exercise labels. The classifier model itself is external; it is reached
// through the Classifier interface.
package classify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// DefaultWindow is the number of probability vectors averaged.
const DefaultWindow = 10

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the vectors already in the window.
	ErrDimensionMismatch = errors.New("classify: probability vector dimension mismatch")
	// ErrEmptyVector is returned for a zero-length vector.
	ErrEmptyVector = errors.New("classify: empty probability vector")
)

// Classifier produces a class-probability vector for one feature vector.
type Classifier interface {
	Predict(ctx context.Context, features []float64) ([]float64, error)
}

// PredictionSmoother keeps a sliding window of probability vectors and
// reports their element-wise mean. It is safe for concurrent use.
type PredictionSmoother struct {
	mu     sync.Mutex
	window int
	queue  [][]float64
}

// NewPredictionSmoother returns a smoother averaging up to window vectors.
// A non-positive window uses DefaultWindow.
func NewPredictionSmoother(window int) *PredictionSmoother {
	if window <= 0 {
		window = DefaultWindow
	}
	return &PredictionSmoother{window: window}
}

// Push adds v to the window, evicting the oldest vector beyond capacity,
// and returns the element-wise mean of the window. v is copied.
func (s *PredictionSmoother) Push(v []float64) ([]float64, error) {
	if len(v) == 0 {
		return nil, ErrEmptyVector
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 && len(s.queue[0]) != len(v) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), len(s.queue[0]))
	}
	s.queue = append(s.queue, append([]float64(nil), v...))
	if len(s.queue) > s.window {
		s.queue = s.queue[len(s.queue)-s.window:]
	}

	mean := make([]float64, len(v))
	for _, q := range s.queue {
		floats.Add(mean, q)
	}
	floats.Scale(1/float64(len(s.queue)), mean)
	return mean, nil
}

// Len returns the number of vectors currently held.
func (s *PredictionSmoother) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Reset empties the window.
func (s *PredictionSmoother) Reset() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}
