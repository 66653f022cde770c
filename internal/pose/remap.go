package pose

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// referenceSource maps each reference slot to the detector joint it is
// copied from. -1 marks slots with no detector equivalent; those are
// filled by interpolation.
var referenceSource = [ReferenceJoints]int{
	RefHip:           LeftHip,
	RefSpine:         -1,
	RefChest:         -1,
	RefNeck:          -1,
	RefHead:          -1,
	RefLeftShoulder:  LeftShoulder,
	RefLeftElbow:     LeftElbow,
	RefLeftWrist:     LeftWrist,
	RefRightShoulder: RightShoulder,
	RefRightElbow:    RightElbow,
	RefRightWrist:    RightWrist,
	RefLeftHip:       LeftHip,
	RefLeftKnee:      LeftKnee,
	RefLeftAnkle:     LeftAnkle,
	RefRightHip:      RightHip,
	RefRightKnee:     RightKnee,
	RefRightAnkle:    RightAnkle,
}

// ToReference remaps a detector-layout pose onto the 17-joint reference
// layout. Slots whose source joint is absent are filled by linear
// interpolation between the nearest populated neighbours in index order
// (score is the lower neighbour score). A slot with a populated neighbour
// on only one side copies it. With nothing populated every slot is zero.
func ToReference(p Pose) Pose {
	out := make(Pose, ReferenceJoints)
	filled := make([]bool, ReferenceJoints)
	for slot, src := range referenceSource {
		if kp, ok := p.At(src); ok {
			out[slot] = kp
			filled[slot] = true
		}
	}
	fillGaps(out, filled)
	return out
}

func fillGaps(out Pose, filled []bool) {
	for i := range out {
		if filled[i] {
			continue
		}
		prev, next := -1, -1
		for j := i - 1; j >= 0; j-- {
			if filled[j] {
				prev = j
				break
			}
		}
		for j := i + 1; j < len(out); j++ {
			if filled[j] {
				next = j
				break
			}
		}
		switch {
		case prev >= 0 && next >= 0:
			t := float64(i-prev) / float64(next-prev)
			out[i] = lerp(out[prev], out[next], t)
		case prev >= 0:
			out[i] = out[prev]
		case next >= 0:
			out[i] = out[next]
		default:
			out[i] = Keypoint{}
		}
	}
}

func vec3(k Keypoint) r3.Vec { return r3.Vec{X: k.X, Y: k.Y, Z: k.Z} }

func lerp(a, b Keypoint, t float64) Keypoint {
	v := r3.Add(vec3(a), r3.Scale(t, r3.Sub(vec3(b), vec3(a))))
	return Keypoint{X: v.X, Y: v.Y, Z: v.Z, Score: math.Min(a.Score, b.Score)}
}

// Frame records the translation and scale applied by UnitScale so a
// pose returned in unit space can be mapped back.
type Frame struct {
	Root  r3.Vec
	Scale float64
}

// Restore maps a unit-space pose back into the frame it was scaled from.
func (f Frame) Restore(p Pose) Pose {
	out := p.Clone()
	s := f.Scale
	if s <= 0 {
		s = 1
	}
	for i := range out {
		v := r3.Add(r3.Scale(s, vec3(out[i])), f.Root)
		out[i].X, out[i].Y, out[i].Z = v.X, v.Y, v.Z
	}
	return out
}

// UnitScale centres a reference-layout pose on joint 0 and divides every
// coordinate by the largest 3-D distance from that joint, when positive.
// This is the request format of the pose-correction service.
func UnitScale(p Pose) Pose {
	out, _ := UnitScaleFrame(p)
	return out
}

// UnitScaleFrame is UnitScale that also returns the applied Frame.
func UnitScaleFrame(p Pose) (Pose, Frame) {
	out := p.Clone()
	if len(out) == 0 {
		return out, Frame{}
	}
	root := vec3(out[RefHip])
	maxNorm := 0.0
	for i := range out {
		v := r3.Sub(vec3(out[i]), root)
		out[i].X, out[i].Y, out[i].Z = v.X, v.Y, v.Z
		maxNorm = math.Max(maxNorm, r3.Norm(v))
	}
	frame := Frame{Root: root, Scale: 1}
	if maxNorm > 0 {
		frame.Scale = maxNorm
		for i := range out {
			v := r3.Scale(1/maxNorm, vec3(out[i]))
			out[i].X, out[i].Y, out[i].Z = v.X, v.Y, v.Z
		}
	}
	return out, frame
}
