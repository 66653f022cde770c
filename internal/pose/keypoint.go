package pose

// VisibilityThreshold is the detector confidence below which a keypoint is
// treated as not visible.
const VisibilityThreshold = 0.3

// ReadyVisibilityRatio is the fraction of visible joints a frame needs
// before the subject counts as fully in view.
const ReadyVisibilityRatio = 0.5

// Keypoint is one detected anatomical landmark.
// Z is zero when the detector does not produce depth.
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z,omitempty"`
	Score float64 `json:"score"`
}

// Visible reports whether the keypoint's confidence clears the visibility
// threshold. Checks that reference a joint use this strict comparison.
func (k Keypoint) Visible() bool {
	return k.Score > VisibilityThreshold
}

// Pose is an ordered keypoint sequence indexed by a Layout.
// Indices beyond len(p) are treated as absent joints.
type Pose []Keypoint

// At returns the keypoint at index i and whether it exists.
func (p Pose) At(i int) (Keypoint, bool) {
	if i < 0 || i >= len(p) {
		return Keypoint{}, false
	}
	return p[i], true
}

// Visible reports whether every listed joint exists and is visible.
func (p Pose) Visible(joints ...int) bool {
	for _, j := range joints {
		kp, ok := p.At(j)
		if !ok || !kp.Visible() {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no memory with p.
func (p Pose) Clone() Pose {
	if p == nil {
		return nil
	}
	out := make(Pose, len(p))
	copy(out, p)
	return out
}

// Visibility summarises how much of the body the detector can see.
type Visibility struct {
	Visible int     `json:"visible"`
	Total   int     `json:"total"`
	Ratio   float64 `json:"ratio"`
	Ready   bool    `json:"ready"`
}

// Status returns the short operator-facing readiness string.
func (v Visibility) Status() string {
	if v.Ready {
		return "ready"
	}
	return "adjust position"
}

// CheckVisibility counts visible joints and decides whether the subject is
// sufficiently in frame.
func CheckVisibility(p Pose) Visibility {
	v := Visibility{Total: len(p)}
	if v.Total == 0 {
		return v
	}
	for _, kp := range p {
		if kp.Visible() {
			v.Visible++
		}
	}
	v.Ratio = float64(v.Visible) / float64(v.Total)
	v.Ready = v.Ratio >= ReadyVisibilityRatio
	return v
}
