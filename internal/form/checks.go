package form

import (
	"math"

	"github.com/banshee-data/formsense/internal/pose"
)

// Outcome is the verdict of one boolean check.
type Outcome struct {
	Pass     bool
	Feedback string
}

// Check is one visibility-guarded test. Eval runs only when every joint
// in Joints is visible; it may return several outcomes (one per side) or
// none when a derived angle is undefined.
type Check struct {
	Joints []int
	Eval   func(p pose.Pose) []Outcome
}

// ConsistencyRule scores a pose against fixed thresholds with no reference
// pose: score = passed/evaluated × 10.
type ConsistencyRule struct {
	Checks []Check
}

// Evaluate implements Rule. The corrected pose is ignored.
func (r ConsistencyRule) Evaluate(p, _ pose.Pose) (Result, error) {
	res := Result{Scale: ScaleConsistency, Feedback: []string{}}
	for _, c := range r.Checks {
		if !p.Visible(c.Joints...) {
			continue
		}
		for _, o := range c.Eval(p) {
			res.Checks++
			if o.Pass {
				res.Passed++
			} else {
				res.Feedback = append(res.Feedback, o.Feedback)
			}
		}
	}
	if res.Checks > 0 {
		res.Score = float64(res.Passed) / float64(res.Checks) * ScaleConsistency
	}
	return res, nil
}

func outcome(pass bool, feedback string) []Outcome {
	return []Outcome{{Pass: pass, Feedback: feedback}}
}

func absDiff(a, b float64) float64 { return math.Abs(a - b) }

func meanY(p pose.Pose, a, b int) float64 { return (p[a].Y + p[b].Y) / 2 }

// angles computes joint angles for each triplet, reporting false if any is
// undefined.
func angles(p pose.Pose, triplets ...[3]int) ([]float64, bool) {
	out := make([]float64, len(triplets))
	for i, t := range triplets {
		a, ok := p.JointAngle(t[0], t[1], t[2])
		if !ok {
			return nil, false
		}
		out[i] = a
	}
	return out, true
}

// levelCheck passes when two joints sit within tol of each other
// vertically.
func levelCheck(a, b int, tol float64, feedback string) Check {
	return Check{
		Joints: []int{a, b},
		Eval: func(p pose.Pose) []Outcome {
			return outcome(absDiff(p[a].Y, p[b].Y) < tol, feedback)
		},
	}
}

func shouldersLevel() Check {
	return levelCheck(pose.LeftShoulder, pose.RightShoulder, 0.1, "Keep shoulders level")
}

func hipsLevel() Check {
	return levelCheck(pose.LeftHip, pose.RightHip, 0.1, "Keep hips level")
}

// backStraight compares mean shoulder height to mean hip height.
func backStraight() Check {
	return Check{
		Joints: []int{pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip},
		Eval: func(p pose.Pose) []Outcome {
			d := absDiff(meanY(p, pose.LeftShoulder, pose.RightShoulder), meanY(p, pose.LeftHip, pose.RightHip))
			return outcome(d < 0.2, "Keep back straight")
		},
	}
}

// bothAnglesNear passes when the left and right angles are both within tol
// of target.
func bothAnglesNear(left, right [3]int, target, tol float64, feedback string) Check {
	return Check{
		Joints: uniqueJoints(left[:], right[:]),
		Eval: func(p pose.Pose) []Outcome {
			a, ok := angles(p, left, right)
			if !ok {
				return nil
			}
			return outcome(absDiff(a[0], target) < tol && absDiff(a[1], target) < tol, feedback)
		},
	}
}

var (
	leftElbowToWrist  = [3]int{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist}
	rightElbowToWrist = [3]int{pose.RightShoulder, pose.RightElbow, pose.RightWrist}
	leftElbowToHip    = [3]int{pose.LeftShoulder, pose.LeftElbow, pose.LeftHip}
	rightElbowToHip   = [3]int{pose.RightShoulder, pose.RightElbow, pose.RightHip}
	leftKneeToAnkle   = [3]int{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle}
	rightKneeToAnkle  = [3]int{pose.RightHip, pose.RightKnee, pose.RightAnkle}
	leftKneeToHip     = [3]int{pose.LeftHip, pose.LeftKnee, pose.RightHip}
	rightKneeToHip    = [3]int{pose.RightHip, pose.RightKnee, pose.LeftHip}
)

// sidePair checks the left and right sides independently, producing one
// outcome per side. test receives the (joint, reference joint) pair.
func sidePair(left, right [2]int, test func(a, b pose.Keypoint) bool, leftFeedback, rightFeedback string) Check {
	return Check{
		Joints: []int{left[0], left[1], right[0], right[1]},
		Eval: func(p pose.Pose) []Outcome {
			return []Outcome{
				{Pass: test(p[left[0]], p[left[1]]), Feedback: leftFeedback},
				{Pass: test(p[right[0]], p[right[1]]), Feedback: rightFeedback},
			}
		},
	}
}

func xWithin(tol float64) func(a, b pose.Keypoint) bool {
	return func(a, b pose.Keypoint) bool { return absDiff(a.X, b.X) < tol }
}

func xBeyond(tol float64) func(a, b pose.Keypoint) bool {
	return func(a, b pose.Keypoint) bool { return absDiff(a.X, b.X) > tol }
}

func yBeyond(tol float64) func(a, b pose.Keypoint) bool {
	return func(a, b pose.Keypoint) bool { return absDiff(a.Y, b.Y) > tol }
}

func uniqueJoints(groups ...[]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, g := range groups {
		for _, j := range g {
			if !seen[j] {
				seen[j] = true
				out = append(out, j)
			}
		}
	}
	return out
}
