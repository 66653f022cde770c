package reps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/formsense/internal/pose"
	"github.com/banshee-data/formsense/internal/testutil"
	"github.com/banshee-data/formsense/internal/timeutil"
)

func newTestCounter(profiles map[string]Profile) (*Counter, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return NewCounter(CounterConfig{
		Profiles:    profiles,
		Cooldown:    DefaultCooldown,
		HistorySize: DefaultHistorySize,
		Clock:       clock,
	}), clock
}

func observe(t *testing.T, c *Counter, exercise string, angles ...float64) Event {
	t.Helper()
	var ev Event
	for _, a := range angles {
		var err error
		ev, err = c.Observe(exercise, Sample{Angle: a})
		require.NoError(t, err)
	}
	return ev
}

func TestCounter_VerticalDownFirst(t *testing.T) {
	t.Parallel()

	c, _ := newTestCounter(nil)
	ev := observe(t, c, "push-up", 100)
	assert.True(t, ev.Seeded)
	assert.False(t, ev.Completed)

	ev = observe(t, c, "push-up", 40)
	assert.True(t, ev.Completed)
	assert.True(t, ev.Accepted)
	assert.Equal(t, 1, ev.Count)
	assert.Equal(t, DirectionUp, ev.Direction)
}

func TestCounter_VerticalUpFirst(t *testing.T) {
	t.Parallel()

	c, _ := newTestCounter(nil)
	ev := observe(t, c, "Barbell Bench Press", 100, 95)
	assert.Equal(t, DirectionDown, ev.Direction, "reaching max angle arms the descent")
	assert.False(t, ev.Completed)

	ev = observe(t, c, "barbell bench press", 60, 40)
	assert.True(t, ev.Accepted)
	assert.Equal(t, 1, ev.Count)
}

func TestCounter_ThresholdRequiresMovement(t *testing.T) {
	t.Parallel()

	c, _ := newTestCounter(nil)
	ev := observe(t, c, "push-up", 44, 44, 44.1)
	assert.False(t, ev.Completed, "angle change of 0.1 is below the 0.15 threshold")
	assert.Equal(t, DirectionDown, ev.Direction)
}

func TestCounter_Cooldown(t *testing.T) {
	t.Parallel()

	t.Run("second rep within two seconds is dropped", func(t *testing.T) {
		t.Parallel()
		c, clock := newTestCounter(nil)
		observe(t, c, "push-up", 100, 40, 100)
		clock.Advance(time.Second)
		ev := observe(t, c, "push-up", 40)
		assert.True(t, ev.Completed)
		assert.False(t, ev.Accepted)
		assert.Equal(t, 1, ev.Count)
		assert.Equal(t, DirectionUp, ev.Direction, "direction flips even when the rep is rejected")
	})

	t.Run("second rep after cooldown counts", func(t *testing.T) {
		t.Parallel()
		c, clock := newTestCounter(nil)
		observe(t, c, "push-up", 100, 40, 100)
		clock.Advance(2500 * time.Millisecond)
		ev := observe(t, c, "push-up", 40)
		assert.True(t, ev.Accepted)
		assert.Equal(t, 2, ev.Count)
	})

	t.Run("exactly at cooldown is rejected", func(t *testing.T) {
		t.Parallel()
		c, clock := newTestCounter(nil)
		observe(t, c, "push-up", 100, 40, 100)
		clock.Advance(DefaultCooldown)
		ev := observe(t, c, "push-up", 40)
		assert.False(t, ev.Accepted)
	})

	t.Run("cooldown is shared across exercises", func(t *testing.T) {
		t.Parallel()
		c, clock := newTestCounter(nil)
		observe(t, c, "push-up", 100, 40)
		clock.Advance(time.Second)
		ev := observe(t, c, "barbell squat", 120, 60)
		assert.True(t, ev.Completed)
		assert.False(t, ev.Accepted)
	})
}

func TestCounter_NeckStretch(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, angles []float64) int {
		t.Helper()
		c, clock := newTestCounter(nil)
		var ev Event
		for _, a := range angles {
			var err error
			ev, err = c.Check("neck side stretch", testutil.NeckPose(a))
			require.NoError(t, err)
			require.False(t, ev.Skipped)
			clock.Advance(100 * time.Millisecond)
		}
		return ev.Count
	}

	// The valley is recognised only once two rising samples follow the
	// minimum, so a swing back to 15 counts when the head starts to rise
	// again.
	t.Run("fifteen to forty and back counts once the rise confirms the valley", func(t *testing.T) {
		t.Parallel()
		angles := []float64{15, 20, 25, 30, 35, 40, 35, 30, 25, 20, 15, 20, 25}
		assert.Equal(t, 1, run(t, angles))
	})

	t.Run("stopping exactly at fifteen is not yet a rep", func(t *testing.T) {
		t.Parallel()
		angles := []float64{15, 20, 25, 30, 35, 40, 35, 30, 25, 20, 15}
		assert.Equal(t, 0, run(t, angles))
	})

	t.Run("one rising sample after the minimum is not enough", func(t *testing.T) {
		t.Parallel()
		angles := []float64{15, 20, 25, 30, 35, 40, 35, 30, 25, 20, 15, 20}
		assert.Equal(t, 0, run(t, angles))
	})

	t.Run("swing of ten degrees or less does not count", func(t *testing.T) {
		t.Parallel()
		angles := []float64{15, 17.5, 20, 22.5, 25, 22.5, 20, 17.5, 15, 17.5, 20}
		assert.Equal(t, 0, run(t, angles))
	})

	t.Run("valley without an armed peak does not count", func(t *testing.T) {
		t.Parallel()
		angles := []float64{40, 35, 30, 25, 20, 25, 30}
		assert.Equal(t, 0, run(t, angles))
	})
}

func TestCounter_PeakValleyTrackersResetAfterRep(t *testing.T) {
	t.Parallel()

	c, _ := newTestCounter(nil)
	observe(t, c, "neck side stretch", 15, 20, 25, 30, 35, 40, 35, 30, 25, 20, 15, 20, 25)
	st, ok := c.Snapshot("neck side stretch")
	require.True(t, ok)
	assert.Equal(t, 1, st.Count)
	assert.False(t, st.RepInProgress)
	require.NotNil(t, st.PeakAngle)
	assert.Equal(t, 25.0, *st.PeakAngle)
	assert.Equal(t, 25.0, *st.ValleyAngle)
	assert.Len(t, st.History, DefaultHistorySize)
	assert.Equal(t, 25.0, st.History[len(st.History)-1])
}

func TestCounter_GenericLateral(t *testing.T) {
	t.Parallel()

	profiles := map[string]Profile{
		"side raise": {Direction: DirectionLeft, Threshold: 0.1, MinAngle: 15, MaxAngle: 40, Region: RegionArm, Movement: MovementLateral},
	}
	c, clock := newTestCounter(profiles)

	ev := observe(t, c, "side raise", 10, 45)
	assert.True(t, ev.Accepted)
	assert.Equal(t, DirectionRight, ev.Direction)

	ev = observe(t, c, "side raise", 10)
	assert.False(t, ev.Completed)
	assert.Equal(t, DirectionLeft, ev.Direction)

	clock.Advance(3 * time.Second)
	ev = observe(t, c, "side raise", 45)
	assert.Equal(t, 2, ev.Count)
}

func TestCounter_ResetThenCount(t *testing.T) {
	t.Parallel()

	c, clock := newTestCounter(nil)
	observe(t, c, "barbell squat", 120, 60, 120)
	require.Equal(t, 1, c.Counts()["barbell squat"])

	require.NoError(t, c.Reset("barbell squat"))
	st, _ := c.Snapshot("barbell squat")
	assert.Zero(t, st.Count)
	assert.Equal(t, DirectionDown, st.Direction)
	assert.Nil(t, st.LastAngle)
	assert.Nil(t, st.LastPosition)

	clock.Advance(3 * time.Second)
	ev := observe(t, c, "barbell squat", 120, 60)
	assert.Equal(t, 1, ev.Count)

	assert.ErrorIs(t, c.Reset("jumping jacks"), ErrUnknownProfile)
}

func TestCounter_Check(t *testing.T) {
	t.Parallel()

	t.Run("uses the arm angle", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCounter(nil)
		_, err := c.Check("push-up", testutil.ArmPose(170))
		require.NoError(t, err)
		ev, err := c.Check("push-up", testutil.ArmPose(40))
		require.NoError(t, err)
		assert.InDelta(t, 40, ev.Sample.Angle, 1e-9)
		assert.True(t, ev.Accepted)
	})

	t.Run("occluded frame is skipped", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCounter(nil)
		ev, err := c.Check("push-up", testutil.Hide(testutil.ArmPose(90), pose.RightWrist))
		require.NoError(t, err)
		assert.True(t, ev.Skipped)
		st, _ := c.Snapshot("push-up")
		assert.Nil(t, st.LastAngle)
	})

	t.Run("unknown exercise", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestCounter(nil)
		_, err := c.Check("jumping jacks", testutil.StandingPose())
		assert.ErrorIs(t, err, ErrUnknownProfile)
		_, err = c.Observe("jumping jacks", Sample{})
		assert.ErrorIs(t, err, ErrUnknownProfile)
		assert.False(t, c.Has("jumping jacks"))
	})
}

func TestCounter_RestoreAndCounts(t *testing.T) {
	t.Parallel()

	c, _ := newTestCounter(nil)
	c.Restore(map[string]int{"Push-Up": 7, "unknown": 3})
	counts := c.Counts()
	assert.Equal(t, 7, counts["push-up"])
	assert.NotContains(t, counts, "unknown")
	assert.Len(t, c.Exercises(), len(DefaultProfiles()))
}
