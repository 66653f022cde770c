package pose

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypoint_Visible(t *testing.T) {
	t.Parallel()
	assert.True(t, Keypoint{Score: 0.31}.Visible())
	assert.False(t, Keypoint{Score: VisibilityThreshold}.Visible())
	assert.False(t, Keypoint{}.Visible())
}

func TestPose_VisibleAbsentJoint(t *testing.T) {
	t.Parallel()
	p := Pose{{Score: 0.9}, {Score: 0.9}}
	assert.True(t, p.Visible(0, 1))
	assert.False(t, p.Visible(0, 2))
	assert.False(t, p.Visible(-1))
}

func TestKeypoint_JSONWithoutZ(t *testing.T) {
	t.Parallel()

	var p Pose
	require.NoError(t, json.Unmarshal([]byte(`[{"x":0.1,"y":0.2,"score":0.9}]`), &p))
	require.Len(t, p, 1)
	assert.Equal(t, Keypoint{X: 0.1, Y: 0.2, Score: 0.9}, p[0])
}

func TestCheckVisibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []float64
		ready  bool
		status string
	}{
		{"all visible", []float64{0.9, 0.8, 0.7, 0.6}, true, "ready"},
		{"exactly half", []float64{0.9, 0.8, 0.1, 0.3}, true, "ready"},
		{"below half", []float64{0.9, 0.1, 0.1, 0.3}, false, "adjust position"},
		{"empty", nil, false, "adjust position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := make(Pose, len(tt.scores))
			for i, s := range tt.scores {
				p[i].Score = s
			}
			v := CheckVisibility(p)
			assert.Equal(t, tt.ready, v.Ready)
			assert.Equal(t, tt.status, v.Status())
		})
	}
}

func TestLayout(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 33, LayoutDetector.Size())
	assert.Equal(t, 17, LayoutReference.Size())
	assert.Equal(t, 0, Layout("other").Size())
	assert.Equal(t, "left_hip", LayoutDetector.JointName(LeftHip))
	assert.Equal(t, "right_ankle", LayoutReference.JointName(RefRightAnkle))
	assert.Equal(t, "", LayoutReference.JointName(40))
}
