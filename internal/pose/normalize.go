package pose

import "math"

// Normalize translates p so the hip midpoint is the origin and divides every
// coordinate, Z included, by the mean of shoulder width and knee width.
// Score passes through.
//
// The second return is false, and p is returned unchanged, when any of the
// hip, shoulder or knee anchors is absent or not visible, or the scale is
// zero or not finite.
func Normalize(p Pose) (Pose, bool) {
	if !p.Visible(LeftHip, RightHip, LeftShoulder, RightShoulder, LeftKnee, RightKnee) {
		return p, false
	}
	anchor := Midpoint(p[LeftHip], p[RightHip])
	shoulderWidth := Distance(p[LeftShoulder], p[RightShoulder])
	kneeWidth := Distance(p[LeftKnee], p[RightKnee])
	scale := (shoulderWidth + kneeWidth) / 2
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return p, false
	}

	out := make(Pose, len(p))
	for i, kp := range p {
		out[i] = Keypoint{
			X:     (kp.X - anchor.X) / scale,
			Y:     (kp.Y - anchor.Y) / scale,
			Z:     kp.Z / scale,
			Score: kp.Score,
		}
	}
	return out, true
}
