package pose

// Layout identifies a skeletal indexing scheme.
type Layout string

const (
	// LayoutDetector is the 33-joint layout produced by the primary pose
	// detector (BlazePose / MediaPipe indices).
	LayoutDetector Layout = "detector"
	// LayoutReference is the 17-joint H36M layout consumed and produced by
	// the pose-correction service.
	LayoutReference Layout = "reference"
)

// Size returns the joint count of the layout.
func (l Layout) Size() int {
	switch l {
	case LayoutDetector:
		return DetectorJoints
	case LayoutReference:
		return ReferenceJoints
	default:
		return 0
	}
}

// Detector layout indices.
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	DetectorJoints = 33
)

// Reference (H36M) layout indices.
const (
	RefHip           = 0
	RefSpine         = 1
	RefChest         = 2
	RefNeck          = 3
	RefHead          = 4
	RefLeftShoulder  = 5
	RefLeftElbow     = 6
	RefLeftWrist     = 7
	RefRightShoulder = 8
	RefRightElbow    = 9
	RefRightWrist    = 10
	RefLeftHip       = 11
	RefLeftKnee      = 12
	RefLeftAnkle     = 13
	RefRightHip      = 14
	RefRightKnee     = 15
	RefRightAnkle    = 16
	ReferenceJoints  = 17
)

// detectorNames maps detector indices to stable lower_snake names used in
// logs and JSON debug output.
var detectorNames = [DetectorJoints]string{
	"nose", "left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear", "mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_pinky", "right_pinky",
	"left_index", "right_index", "left_thumb", "right_thumb",
	"left_hip", "right_hip", "left_knee", "right_knee",
	"left_ankle", "right_ankle", "left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

var referenceNames = [ReferenceJoints]string{
	"hip", "spine", "chest", "neck", "head",
	"left_shoulder", "left_elbow", "left_wrist",
	"right_shoulder", "right_elbow", "right_wrist",
	"left_hip", "left_knee", "left_ankle",
	"right_hip", "right_knee", "right_ankle",
}

// JointName returns the name of joint i in the layout, or "" when i is out
// of range.
func (l Layout) JointName(i int) string {
	switch l {
	case LayoutDetector:
		if i >= 0 && i < DetectorJoints {
			return detectorNames[i]
		}
	case LayoutReference:
		if i >= 0 && i < ReferenceJoints {
			return referenceNames[i]
		}
	}
	return ""
}
