package pose

import "sync"

// DefaultSmoothingFactor is the weight given to the previous frame.
const DefaultSmoothingFactor = 0.4

// Smooth blends current toward previous with an exponential moving
// average: out = cur*(1-alpha) + prev*alpha, applied to X, Y and Z of every
// joint whose current score is at least VisibilityThreshold. Joints below
// the threshold, and joints with no counterpart in previous, pass through.
// Length and order of current are preserved. A nil previous returns
// current unchanged.
func Smooth(current, previous Pose, alpha float64) Pose {
	if previous == nil {
		return current
	}
	out := make(Pose, len(current))
	for i, cur := range current {
		prev, ok := previous.At(i)
		if !ok || cur.Score < VisibilityThreshold {
			out[i] = cur
			continue
		}
		out[i] = Keypoint{
			X:     cur.X*(1-alpha) + prev.X*alpha,
			Y:     cur.Y*(1-alpha) + prev.Y*alpha,
			Z:     cur.Z*(1-alpha) + prev.Z*alpha,
			Score: cur.Score,
		}
	}
	return out
}

// Smoother applies Smooth across a stream, remembering the last output.
// It is safe for concurrent use.
type Smoother struct {
	mu       sync.Mutex
	alpha    float64
	previous Pose
}

// NewSmoother returns a Smoother using alpha as the previous-frame weight.
// Values outside [0, 1) fall back to DefaultSmoothingFactor.
func NewSmoother(alpha float64) *Smoother {
	if alpha < 0 || alpha >= 1 {
		alpha = DefaultSmoothingFactor
	}
	return &Smoother{alpha: alpha}
}

// Apply smooths p against the previous output and stores the result.
func (s *Smoother) Apply(p Pose) Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Smooth(p, s.previous, s.alpha)
	s.previous = out.Clone()
	return out
}

// Reset forgets the previous frame.
func (s *Smoother) Reset() {
	s.mu.Lock()
	s.previous = nil
	s.mu.Unlock()
}
