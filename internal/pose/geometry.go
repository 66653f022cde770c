package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

func vec2(k Keypoint) r2.Vec { return r2.Vec{X: k.X, Y: k.Y} }

// CalculateAngle returns the angle at b formed by the rays b→a and b→c, in
// degrees within [0, 180]. The cosine is clamped to [-1, 1] before acos.
// When either ray has zero length the angle is undefined and CalculateAngle
// returns NaN and false.
func CalculateAngle(a, b, c Keypoint) (float64, bool) {
	ba := r2.Sub(vec2(a), vec2(b))
	bc := r2.Sub(vec2(c), vec2(b))
	na, nc := r2.Norm(ba), r2.Norm(bc)
	if na == 0 || nc == 0 {
		return math.NaN(), false
	}
	cos := r2.Dot(ba, bc) / (na * nc)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

// JointAngle is CalculateAngle over three joints of p. It reports false when
// any joint is absent or the angle is undefined. Visibility is not checked.
func (p Pose) JointAngle(a, b, c int) (float64, bool) {
	ka, okA := p.At(a)
	kb, okB := p.At(b)
	kc, okC := p.At(c)
	if !okA || !okB || !okC {
		return math.NaN(), false
	}
	return CalculateAngle(ka, kb, kc)
}

// Distance returns the planar Euclidean distance between two keypoints.
func Distance(a, b Keypoint) float64 {
	return r2.Norm(r2.Sub(vec2(a), vec2(b)))
}

// Midpoint returns the planar midpoint of a and b. Z is averaged and the
// score is the lower of the two.
func Midpoint(a, b Keypoint) Keypoint {
	m := r2.Scale(0.5, r2.Add(vec2(a), vec2(b)))
	return Keypoint{
		X:     m.X,
		Y:     m.Y,
		Z:     (a.Z + b.Z) / 2,
		Score: math.Min(a.Score, b.Score),
	}
}
