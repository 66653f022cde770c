package reps

import "sort"

// DefaultHistorySize is the angle history kept for peak/valley detection.
const DefaultHistorySize = 10

// peakValleyWindow is the number of recent samples inspected for a turn.
const peakValleyWindow = 5

// State is the per-exercise rep state machine.
type State struct {
	Profile       Profile
	LastPosition  *float64
	LastAngle     *float64
	Direction     Direction
	Count         int
	History       []float64
	PeakAngle     *float64
	ValleyAngle   *float64
	RepInProgress bool

	historySize int
}

func newState(p Profile, historySize int) *State {
	s := &State{Profile: p, historySize: historySize}
	s.reset()
	return s
}

func (s *State) reset() {
	s.LastPosition = nil
	s.LastAngle = nil
	s.Direction = s.Profile.Direction
	s.Count = 0
	s.History = make([]float64, 0, s.historySize)
	s.PeakAngle = nil
	s.ValleyAngle = nil
	s.RepInProgress = false
}

func (s *State) pushHistory(angle float64) {
	if len(s.History) == s.historySize {
		copy(s.History, s.History[1:])
		s.History = s.History[:len(s.History)-1]
	}
	s.History = append(s.History, angle)
}

// step advances the state machine with one sample and reports whether a
// rep was completed. It does not apply the cooldown.
func (s *State) step(sample Sample) bool {
	angle := sample.Angle
	if s.Profile.PeakValley {
		s.pushHistory(angle)
	}
	if s.LastPosition == nil || s.LastAngle == nil {
		s.LastPosition = ptr(sample.Position)
		s.LastAngle = ptr(angle)
		return false
	}

	change := angle - *s.LastAngle
	if change < 0 {
		change = -change
	}
	moved := change > s.Profile.Threshold

	completed := false
	switch {
	case s.Profile.PeakValley:
		completed = s.stepPeakValley(angle)
	case s.Profile.Movement == MovementLateral:
		if s.Direction == DirectionLeft {
			if angle >= s.Profile.MaxAngle && moved {
				completed = true
				s.Direction = DirectionRight
			}
		} else if angle <= s.Profile.MinAngle && moved {
			s.Direction = DirectionLeft
		}
	default:
		if s.Direction == DirectionDown {
			if angle <= s.Profile.MinAngle && moved {
				completed = true
				s.Direction = DirectionUp
			}
		} else if angle >= s.Profile.MaxAngle && moved {
			s.Direction = DirectionDown
		}
	}

	s.LastPosition = ptr(sample.Position)
	s.LastAngle = ptr(angle)
	return completed
}

// stepPeakValley arms at a local maximum whose swing from the running
// minimum exceeds 10 degrees, and completes at the next local minimum.
func (s *State) stepPeakValley(angle float64) bool {
	if s.PeakAngle == nil || s.ValleyAngle == nil {
		s.PeakAngle = ptr(angle)
		s.ValleyAngle = ptr(angle)
	}
	if angle > *s.PeakAngle {
		s.PeakAngle = ptr(angle)
	}
	if angle < *s.ValleyAngle {
		s.ValleyAngle = ptr(angle)
	}
	if len(s.History) < peakValleyWindow {
		return false
	}

	h := s.History[len(s.History)-peakValleyWindow:]
	atPeak := h[4] < h[3] && h[3] < h[2] && h[2] > h[1] && h[1] > h[0]
	atValley := h[4] > h[3] && h[3] > h[2] && h[2] < h[1] && h[1] < h[0]

	if atPeak && *s.PeakAngle-*s.ValleyAngle > 10 && !s.RepInProgress {
		s.RepInProgress = true
	}
	if atValley && s.RepInProgress {
		s.RepInProgress = false
		s.PeakAngle = ptr(angle)
		s.ValleyAngle = ptr(angle)
		return true
	}
	return false
}

func ptr(v float64) *float64 { return &v }

// Table holds one State per known exercise.
type Table map[string]*State

// NewTable creates fresh states for every profile.
func NewTable(profiles map[string]Profile, historySize int) Table {
	if historySize < peakValleyWindow {
		historySize = DefaultHistorySize
	}
	t := make(Table, len(profiles))
	for name, p := range profiles {
		t[name] = newState(p, historySize)
	}
	return t
}

// Exercises returns the table's exercise names in sorted order.
func (t Table) Exercises() []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
