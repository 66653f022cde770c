package session

import "time"

// TrailPoint is one rep-signal sample kept for charts.
type TrailPoint struct {
	Time  time.Time `json:"time"`
	Angle float64   `json:"angle"`
	Count int       `json:"count"`
}

// trail is a fixed-capacity ring of TrailPoints.
type trail struct {
	buf  []TrailPoint
	next int
	full bool
}

func newTrail(capacity int) *trail {
	return &trail{buf: make([]TrailPoint, capacity)}
}

func (t *trail) push(p TrailPoint) {
	t.buf[t.next] = p
	t.next = (t.next + 1) % len(t.buf)
	if t.next == 0 {
		t.full = true
	}
}

func (t *trail) points() []TrailPoint {
	if !t.full {
		return append([]TrailPoint(nil), t.buf[:t.next]...)
	}
	out := make([]TrailPoint, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	return append(out, t.buf[:t.next]...)
}
