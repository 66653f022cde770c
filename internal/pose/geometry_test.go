package pose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateAngle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b, c Keypoint
		want    float64
	}{
		{"right angle", Keypoint{X: 1}, Keypoint{}, Keypoint{Y: 1}, 90},
		{"straight line", Keypoint{X: -1}, Keypoint{}, Keypoint{X: 1}, 180},
		{"coincident rays", Keypoint{X: 2, Y: 2}, Keypoint{}, Keypoint{X: 1, Y: 1}, 0},
		{"forty-five", Keypoint{X: 1}, Keypoint{}, Keypoint{X: 1, Y: 1}, 45},
		{"offset vertex", Keypoint{X: 3, Y: 5}, Keypoint{X: 3, Y: 3}, Keypoint{X: 5, Y: 3}, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := CalculateAngle(tt.a, tt.b, tt.c)
			assert.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCalculateAngle_ZeroLengthRay(t *testing.T) {
	t.Parallel()

	got, ok := CalculateAngle(Keypoint{X: 1, Y: 1}, Keypoint{X: 1, Y: 1}, Keypoint{X: 2})
	assert.False(t, ok)
	assert.True(t, math.IsNaN(got))

	got, ok = CalculateAngle(Keypoint{X: 2}, Keypoint{}, Keypoint{})
	assert.False(t, ok)
	assert.True(t, math.IsNaN(got))
}

func TestCalculateAngle_StaysInRange(t *testing.T) {
	t.Parallel()

	// Nearly parallel rays push the cosine past 1 without clamping.
	a := Keypoint{X: 1e8, Y: 1}
	b := Keypoint{}
	c := Keypoint{X: 1e8, Y: 1 + 1e-9}
	got, ok := CalculateAngle(a, b, c)
	assert.True(t, ok)
	assert.False(t, math.IsNaN(got))
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 180.0)
}

func TestJointAngle_AbsentJoint(t *testing.T) {
	t.Parallel()

	p := Pose{{X: 1}, {}}
	_, ok := p.JointAngle(0, 1, 2)
	assert.False(t, ok)
}

func TestMidpoint(t *testing.T) {
	t.Parallel()

	m := Midpoint(Keypoint{X: 0, Y: 2, Z: 1, Score: 0.9}, Keypoint{X: 2, Y: 4, Z: 3, Score: 0.4})
	assert.Equal(t, Keypoint{X: 1, Y: 3, Z: 2, Score: 0.4}, m)
}

func TestDistance(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 5, Distance(Keypoint{}, Keypoint{X: 3, Y: 4}), 1e-12)
}
