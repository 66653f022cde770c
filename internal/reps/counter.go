package reps

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/formsense/internal/config"
	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/pose"
	"github.com/banshee-data/formsense/internal/timeutil"
)

// DefaultCooldown is the minimum gap between accepted reps.
const DefaultCooldown = 2 * time.Second

// Sample is the scalar signal the state machine consumes for one frame.
type Sample struct {
	Angle    float64 `json:"angle"`
	Position float64 `json:"position"`
}

// Event reports what one frame did to an exercise's state.
//
// Completed means the state machine finished a rep; Accepted means it also
// cleared the cooldown and was counted. Skipped frames had an undefined
// angle and left the state untouched.
type Event struct {
	Exercise  string    `json:"exercise"`
	Sample    Sample    `json:"sample"`
	Direction Direction `json:"direction"`
	Skipped   bool      `json:"skipped"`
	Seeded    bool      `json:"seeded"`
	Completed bool      `json:"completed"`
	Accepted  bool      `json:"accepted"`
	Count     int       `json:"count"`
	Time      time.Time `json:"time"`
}

// CounterConfig configures a Counter.
type CounterConfig struct {
	Profiles    map[string]Profile
	Cooldown    time.Duration
	HistorySize int
	Clock       timeutil.Clock
}

// CounterConfigFromTuning builds a CounterConfig from a loaded
// TuningConfig. Profiles default to DefaultProfiles.
func CounterConfigFromTuning(cfg *config.TuningConfig, profiles map[string]Profile) CounterConfig {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return CounterConfig{
		Profiles:    profiles,
		Cooldown:    cfg.GetRepCooldown(),
		HistorySize: cfg.GetAngleHistorySize(),
		Clock:       timeutil.RealClock{},
	}
}

// Counter owns a Table and the cooldown shared by all its exercises.
// It is safe for concurrent use.
type Counter struct {
	mu          sync.Mutex
	table       Table
	clock       timeutil.Clock
	cooldown    time.Duration
	lastRepTime time.Time
}

// NewCounter returns a Counter with fresh states for every profile.
func NewCounter(cfg CounterConfig) *Counter {
	if cfg.Profiles == nil {
		cfg.Profiles = DefaultProfiles()
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = DefaultCooldown
	}
	return &Counter{
		table:    NewTable(cfg.Profiles, cfg.HistorySize),
		clock:    cfg.Clock,
		cooldown: cfg.Cooldown,
	}
}

// Has reports whether the exercise has a rep profile.
func (c *Counter) Has(exercise string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.table[form.NormalizeName(exercise)]
	return ok
}

// Check extracts the exercise's sample from p and advances its state.
// Frames whose angle is undefined are skipped.
func (c *Counter) Check(exercise string, p pose.Pose) (Event, error) {
	key := form.NormalizeName(exercise)
	c.mu.Lock()
	st, ok := c.table[key]
	c.mu.Unlock()
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	sample, ok := st.Profile.Region.Sample(p)
	if !ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		return Event{Exercise: key, Skipped: true, Direction: st.Direction, Count: st.Count, Time: c.clock.Now()}, nil
	}
	return c.Observe(key, sample)
}

// Observe advances the exercise's state with a precomputed sample.
func (c *Counter) Observe(exercise string, sample Sample) (Event, error) {
	key := form.NormalizeName(exercise)
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.table[key]
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	now := c.clock.Now()
	seeded := st.LastPosition == nil
	completed := st.step(sample)

	ev := Event{
		Exercise:  key,
		Sample:    sample,
		Seeded:    seeded,
		Completed: completed,
		Time:      now,
	}
	if completed && now.Sub(c.lastRepTime) > c.cooldown {
		st.Count++
		c.lastRepTime = now
		ev.Accepted = true
	}
	ev.Direction = st.Direction
	ev.Count = st.Count
	return ev, nil
}

// Reset returns one exercise's state to its initial values. The shared
// cooldown is not cleared.
func (c *Counter) Reset(exercise string) error {
	key := form.NormalizeName(exercise)
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.table[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	st.reset()
	return nil
}

// Counts returns a snapshot of every exercise's count.
func (c *Counter) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.table))
	for name, st := range c.table {
		out[name] = st.Count
	}
	return out
}

// Restore seeds counts, typically from the persisted store at start-up.
// Unknown exercises are ignored.
func (c *Counter) Restore(counts map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, n := range counts {
		if st, ok := c.table[form.NormalizeName(name)]; ok {
			st.Count = n
		}
	}
}

// Exercises returns the exercises with profiles.
func (c *Counter) Exercises() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Exercises()
}

// Snapshot returns a copy of one exercise's state.
func (c *Counter) Snapshot(exercise string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.table[form.NormalizeName(exercise)]
	if !ok {
		return State{}, false
	}
	cp := *st
	cp.History = append([]float64(nil), st.History...)
	return cp, true
}
