package form

import (
	"math"

	"github.com/banshee-data/formsense/internal/pose"
)

// Reference-comparison tolerances and penalty.
const (
	AngleTolerance    = 15.0
	DistanceTolerance = 0.1
	ReferencePenalty  = 20.0
)

// ReferenceCheck compares the observed pose with the corrected reference.
// Deviates reports whether the observed pose strays beyond tolerance; ok is
// false when a derived angle is undefined and the check is skipped.
type ReferenceCheck struct {
	Joints   []int
	Feedback string
	Deviates func(p, ref pose.Pose) (deviates, ok bool)
}

// ReferenceRule scores a detector-layout pose against a reference-layout
// corrected pose. Each deviating check deducts ReferencePenalty from 100.
type ReferenceRule struct {
	Checks []ReferenceCheck
}

// Evaluate implements Rule.
func (r ReferenceRule) Evaluate(p, corrected pose.Pose) (Result, error) {
	if len(corrected) < pose.ReferenceJoints {
		return Result{Scale: ScaleReference}, ErrNoReference
	}
	res := Result{Scale: ScaleReference, Feedback: []string{}}
	score := float64(ScaleReference)
	for _, c := range r.Checks {
		if !p.Visible(c.Joints...) {
			continue
		}
		bad, ok := c.Deviates(p, corrected)
		if !ok {
			continue
		}
		res.Checks++
		if bad {
			score -= ReferencePenalty
			res.Feedback = append(res.Feedback, c.Feedback)
		} else {
			res.Passed++
		}
	}
	if res.Checks > 0 {
		res.Score = math.Max(0, score)
	}
	return res, nil
}

func benchPressRule() ReferenceRule {
	return ReferenceRule{Checks: []ReferenceCheck{
		{
			Joints:   []int{pose.LeftShoulder, pose.RightShoulder},
			Feedback: "Keep your shoulders level",
			Deviates: func(p, ref pose.Pose) (bool, bool) {
				observed := absDiff(p[pose.LeftShoulder].Y, p[pose.RightShoulder].Y)
				expected := absDiff(ref[pose.RefLeftShoulder].Y, ref[pose.RefRightShoulder].Y)
				return absDiff(observed, expected) > DistanceTolerance, true
			},
		},
		{
			Joints:   uniqueJoints(leftElbowToWrist[:], rightElbowToWrist[:]),
			Feedback: "Maintain proper elbow angle",
			Deviates: func(p, ref pose.Pose) (bool, bool) {
				obs, ok := angles(p, leftElbowToWrist, rightElbowToWrist)
				if !ok {
					return false, false
				}
				exp, ok := angles(ref,
					[3]int{pose.RefLeftShoulder, pose.RefLeftElbow, pose.RefLeftWrist},
					[3]int{pose.RefRightShoulder, pose.RefRightElbow, pose.RefRightWrist})
				if !ok {
					return false, false
				}
				return absDiff(obs[0], exp[0]) > AngleTolerance || absDiff(obs[1], exp[1]) > AngleTolerance, true
			},
		},
		{
			Joints:   []int{pose.LeftWrist, pose.RightWrist},
			Feedback: "Keep your wrists straight",
			Deviates: func(p, ref pose.Pose) (bool, bool) {
				return absDiff(p[pose.LeftWrist].Y, ref[pose.RefLeftWrist].Y) > DistanceTolerance ||
					absDiff(p[pose.RightWrist].Y, ref[pose.RefRightWrist].Y) > DistanceTolerance, true
			},
		},
	}}
}

func squatRule() ReferenceRule {
	return ReferenceRule{Checks: []ReferenceCheck{
		{
			Joints:   []int{pose.LeftKnee, pose.LeftAnkle, pose.RightKnee, pose.RightAnkle},
			Feedback: "Keep your knees aligned with your toes",
			Deviates: func(p, ref pose.Pose) (bool, bool) {
				left := absDiff(p[pose.LeftKnee].X, p[pose.LeftAnkle].X)
				right := absDiff(p[pose.RightKnee].X, p[pose.RightAnkle].X)
				refLeft := absDiff(ref[pose.RefLeftKnee].X, ref[pose.RefLeftAnkle].X)
				refRight := absDiff(ref[pose.RefRightKnee].X, ref[pose.RefRightAnkle].X)
				return absDiff(left, refLeft) > DistanceTolerance || absDiff(right, refRight) > DistanceTolerance, true
			},
		},
		{
			Joints:   []int{pose.LeftHip, pose.RightHip},
			Feedback: "Squat deeper",
			Deviates: func(p, ref pose.Pose) (bool, bool) {
				depth := meanY(p, pose.LeftHip, pose.RightHip)
				refDepth := meanY(ref, pose.RefLeftHip, pose.RefRightHip)
				return absDiff(depth, refDepth) > DistanceTolerance, true
			},
		},
		{
			Joints:   []int{pose.LeftHip, pose.LeftShoulder, pose.RightShoulder},
			Feedback: "Keep your back straight",
			Deviates: func(p, ref pose.Pose) (bool, bool) {
				back, ok := p.JointAngle(pose.LeftHip, pose.LeftShoulder, pose.RightShoulder)
				if !ok {
					return false, false
				}
				refBack, ok := ref.JointAngle(pose.RefLeftHip, pose.RefLeftShoulder, pose.RefRightShoulder)
				if !ok {
					return false, false
				}
				return absDiff(back, refBack) > AngleTolerance, true
			},
		},
	}}
}
