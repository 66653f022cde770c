package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/formsense/internal/pose"
	"github.com/banshee-data/formsense/internal/testutil"
)

func TestReferenceRule_NoCorrectedPose(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	p := normalized(t, testutil.ArmPose(180))
	_, err := e.Evaluate("barbell bench press", p, nil)
	assert.ErrorIs(t, err, ErrNoReference)

	_, err = e.Evaluate("barbell squat", p, make(pose.Pose, 5))
	assert.ErrorIs(t, err, ErrNoReference)
}

func TestBenchPress(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	p := normalized(t, testutil.ArmPose(180))

	t.Run("matching reference scores 100", func(t *testing.T) {
		t.Parallel()
		res, err := e.Evaluate("barbell bench press", p, pose.ToReference(p))
		require.NoError(t, err)
		assert.Equal(t, Result{Score: 100, Feedback: []string{}, Checks: 3, Passed: 3, Scale: ScaleReference}, res)
	})

	t.Run("wrists below reference", func(t *testing.T) {
		t.Parallel()
		ref := pose.ToReference(p)
		// Along the straight forearm, so the elbow angle is unchanged.
		ref[pose.RefLeftWrist].Y += 0.5
		ref[pose.RefRightWrist].Y += 0.5
		res, err := e.Evaluate("barbell bench press", p, ref)
		require.NoError(t, err)
		assert.Equal(t, 80.0, res.Score)
		assert.Equal(t, []string{"Keep your wrists straight"}, res.Feedback)
	})

	t.Run("hidden wrists skip two checks", func(t *testing.T) {
		t.Parallel()
		hidden := testutil.Hide(p, pose.LeftWrist)
		res, err := e.Evaluate("barbell bench press", hidden, pose.ToReference(p))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Checks)
		assert.Equal(t, 100.0, res.Score)
	})
}

func TestSquat(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	p := normalized(t, testutil.LegPose(90))

	res, err := e.Evaluate("barbell squat", p, pose.ToReference(p))
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, 3, res.Checks)

	ref := pose.ToReference(p)
	ref[pose.RefLeftHip].Y += 0.3
	ref[pose.RefRightHip].Y += 0.3
	res, err = e.Evaluate("barbell squat", p, ref)
	require.NoError(t, err)
	assert.Equal(t, 80.0, res.Score)
	assert.Equal(t, []string{"Squat deeper"}, res.Feedback)
}

func TestReferenceRule_ScoreFloor(t *testing.T) {
	t.Parallel()

	always := ReferenceCheck{
		Joints:   []int{pose.Nose},
		Feedback: "off",
		Deviates: func(p, ref pose.Pose) (bool, bool) { return true, true },
	}
	rule := ReferenceRule{Checks: []ReferenceCheck{always, always, always, always, always, always}}
	p := testutil.StandingPose()
	res, err := rule.Evaluate(p, pose.ToReference(p))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 6, res.Checks)
	assert.Len(t, res.Feedback, 6)
}
