package form

import "github.com/banshee-data/formsense/internal/pose"

func registerBuiltins(e *Engine) {
	e.Register("barbell bench press", benchPressRule())
	e.Register("barbell squat", squatRule())

	for name, checks := range consistencyRules() {
		e.Register(name, ConsistencyRule{Checks: checks})
	}
}

func consistencyRules() map[string][]Check {
	elbowsResting := bothAnglesNear(leftElbowToWrist, rightElbowToWrist, 90, 5, "Keep elbows resting on surface")
	wristsAlignedX := sidePair(
		[2]int{pose.LeftWrist, pose.LeftElbow}, [2]int{pose.RightWrist, pose.RightElbow},
		xWithin(0.1), "Align left wrist above elbow", "Align right wrist above elbow")
	wristsUpDown := sidePair(
		[2]int{pose.LeftWrist, pose.LeftElbow}, [2]int{pose.RightWrist, pose.RightElbow},
		yBeyond(0.1), "Move left wrist up and down", "Move right wrist up and down")
	wristsRotate := sidePair(
		[2]int{pose.LeftWrist, pose.LeftElbow}, [2]int{pose.RightWrist, pose.RightElbow},
		xBeyond(0.1), "Rotate left wrist", "Rotate right wrist")
	wristsSideways := sidePair(
		[2]int{pose.LeftWrist, pose.LeftElbow}, [2]int{pose.RightWrist, pose.RightElbow},
		xBeyond(0.1), "Move left wrist side to side", "Move right wrist side to side")

	wristCurl := []Check{shouldersLevel(), elbowsResting, wristsUpDown}
	wristRotation := []Check{shouldersLevel(), elbowsResting, wristsRotate}
	wristDeviation := []Check{shouldersLevel(), elbowsResting, wristsSideways}

	return map[string][]Check{
		"45° side bend": {
			shouldersLevel(),
			hipsLevel(),
			{
				Joints: []int{pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip},
				Eval: func(p pose.Pose) []Outcome {
					a, ok := p.JointAngle(pose.LeftShoulder, pose.LeftHip, pose.RightHip)
					if !ok {
						return nil
					}
					return outcome(absDiff(a, 45) < 10, "Maintain 45-degree bend")
				},
			},
		},
		"air bike": {
			shouldersLevel(),
			hipsLevel(),
			oppositeLimbs([3]int{pose.LeftHip, pose.LeftKnee, pose.RightHip}, [3]int{pose.RightHip, pose.RightKnee, pose.LeftHip},
				"Move elbows and knees in opposite directions"),
		},
		"walking on stepmill": {
			shouldersLevel(),
			hipsLevel(),
			alternateKnees(leftKneeToHip, rightKneeToHip),
		},
		"barbell deadlift": {
			backStraight(),
			sidePair(
				[2]int{pose.LeftKnee, pose.LeftAnkle}, [2]int{pose.RightKnee, pose.RightAnkle},
				xWithin(0.1), "Align left knee with toes", "Align right knee with toes"),
			hipsLevel(),
		},
		"barbell row": {
			backStraight(),
			bothAnglesNear(leftElbowToHip, rightElbowToHip, 45, 15, "Keep elbows close to body"),
			shouldersLevel(),
		},
		"barbell shoulder press": {
			shouldersLevel(),
			bothAnglesNear(leftElbowToWrist, rightElbowToWrist, 90, 10, "Maintain 90-degree elbow angle"),
			wristsAlignedX,
		},
		"barbell shrug": {
			shouldersLevel(),
			bothAnglesNear(leftElbowToWrist, rightElbowToWrist, 180, 10, "Keep arms straight"),
			wristsAlignedX,
		},
		"barbell triceps extension": {
			shouldersLevel(),
			bothAnglesNear(leftElbowToWrist, rightElbowToWrist, 90, 10, "Keep elbows at 90 degrees"),
			wristsAlignedX,
		},
		"barbell wrist curl":             wristCurl,
		"barbell wrist extension":        wristCurl,
		"barbell wrist flexion":          wristCurl,
		"barbell wrist pronation":        wristRotation,
		"barbell wrist supination":       wristRotation,
		"barbell wrist ulnar deviation":  wristDeviation,
		"barbell wrist radial deviation": wristDeviation,
		"running": {
			shouldersLevel(),
			hipsLevel(),
			alternateKnees(leftKneeToAnkle, rightKneeToAnkle),
			oppositeLimbs(leftKneeToAnkle, rightKneeToAnkle, "Move arms alternately with legs"),
		},
		"neck side stretch": {
			shouldersLevel(),
			{
				Joints: []int{pose.LeftEar, pose.RightEar},
				Eval: func(p pose.Pose) []Outcome {
					return outcome(absDiff(p[pose.LeftEar].Y, p[pose.RightEar].Y) > 0.1, "Tilt head to the side")
				},
			},
			{
				Joints: []int{pose.LeftShoulder, pose.RightShoulder, pose.LeftEar, pose.RightEar},
				Eval: func(p pose.Pose) []Outcome {
					relaxed := absDiff(p[pose.LeftShoulder].Y, p[pose.LeftEar].Y) > 0.2 &&
						absDiff(p[pose.RightShoulder].Y, p[pose.RightEar].Y) > 0.2
					return outcome(relaxed, "Keep shoulders relaxed")
				},
			},
		},
	}
}

// oppositeLimbs passes when, on both sides, the shoulder-elbow-hip angle
// differs from the given knee angle by more than 90 degrees. Every joint of
// the knee triplets is guarded, so a hip-knee-ankle angle needs visible
// ankles.
func oppositeLimbs(leftKnee, rightKnee [3]int, feedback string) Check {
	return Check{
		Joints: uniqueJoints(leftElbowToHip[:], rightElbowToHip[:], leftKnee[:], rightKnee[:]),
		Eval: func(p pose.Pose) []Outcome {
			a, ok := angles(p, leftElbowToHip, rightElbowToHip, leftKnee, rightKnee)
			if !ok {
				return nil
			}
			return outcome(absDiff(a[0], a[2]) > 90 && absDiff(a[1], a[3]) > 90, feedback)
		},
	}
}

// alternateKnees passes when the two knee angles differ by more than 30
// degrees.
func alternateKnees(left, right [3]int) Check {
	return Check{
		Joints: uniqueJoints(left[:], right[:]),
		Eval: func(p pose.Pose) []Outcome {
			a, ok := angles(p, left, right)
			if !ok {
				return nil
			}
			return outcome(absDiff(a[0], a[1]) > 30, "Step alternately with each leg")
		},
	}
}
