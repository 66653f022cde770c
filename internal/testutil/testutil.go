// Package testutil provides shared test utilities and fixtures.
//
// Pose fixtures are built in the detector layout with image-style
// coordinates (y grows downward) and every joint visible unless a test
// overrides it.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banshee-data/formsense/internal/pose"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// FixtureScore is the confidence given to every fixture joint.
const FixtureScore = 0.9

// FixtureTime is the starting instant for mock clocks in tests.
var FixtureTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// standing holds x, y for each detector joint of an upright subject facing
// the camera.
var standing = [pose.DetectorJoints][2]float64{
	pose.Nose:           {0.50, 0.10},
	pose.LeftEyeInner:   {0.52, 0.08},
	pose.LeftEye:        {0.53, 0.08},
	pose.LeftEyeOuter:   {0.54, 0.08},
	pose.RightEyeInner:  {0.48, 0.08},
	pose.RightEye:       {0.47, 0.08},
	pose.RightEyeOuter:  {0.46, 0.08},
	pose.LeftEar:        {0.55, 0.12},
	pose.RightEar:       {0.45, 0.12},
	pose.MouthLeft:      {0.52, 0.13},
	pose.MouthRight:     {0.48, 0.13},
	pose.LeftShoulder:   {0.60, 0.25},
	pose.RightShoulder:  {0.40, 0.25},
	pose.LeftElbow:      {0.62, 0.40},
	pose.RightElbow:     {0.38, 0.40},
	pose.LeftWrist:      {0.63, 0.55},
	pose.RightWrist:     {0.37, 0.55},
	pose.LeftPinky:      {0.64, 0.58},
	pose.RightPinky:     {0.36, 0.58},
	pose.LeftIndex:      {0.63, 0.59},
	pose.RightIndex:     {0.37, 0.59},
	pose.LeftThumb:      {0.62, 0.57},
	pose.RightThumb:     {0.38, 0.57},
	pose.LeftHip:        {0.56, 0.55},
	pose.RightHip:       {0.44, 0.55},
	pose.LeftKnee:       {0.56, 0.75},
	pose.RightKnee:      {0.44, 0.75},
	pose.LeftAnkle:      {0.56, 0.95},
	pose.RightAnkle:     {0.44, 0.95},
	pose.LeftHeel:       {0.57, 0.97},
	pose.RightHeel:      {0.43, 0.97},
	pose.LeftFootIndex:  {0.55, 0.99},
	pose.RightFootIndex: {0.45, 0.99},
}

// StandingPose returns an upright, fully visible detector-layout pose.
func StandingPose() pose.Pose {
	p := make(pose.Pose, pose.DetectorJoints)
	for i, xy := range standing {
		p[i] = pose.Keypoint{X: xy[0], Y: xy[1], Score: FixtureScore}
	}
	return p
}

// Hide drops the score of the listed joints to zero.
func Hide(p pose.Pose, joints ...int) pose.Pose {
	out := p.Clone()
	for _, j := range joints {
		if j < len(out) {
			out[j].Score = 0
		}
	}
	return out
}

// Set overwrites the position of one joint, keeping its score.
func Set(p pose.Pose, joint int, x, y float64) pose.Pose {
	out := p.Clone()
	out[joint].X, out[joint].Y = x, y
	return out
}

// segment places end at length from origin so that the angle between
// origin→anchorDir and origin→end is deg degrees. side mirrors the bend
// horizontally.
func segment(origin pose.Keypoint, length, deg, side float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return origin.X + side*length*math.Sin(rad), origin.Y - length*math.Cos(rad)
}

// ArmPose returns a standing pose whose elbows are bent to deg degrees
// (shoulder-elbow-wrist) on both sides. Upper arms hang vertically.
func ArmPose(deg float64) pose.Pose {
	p := StandingPose()
	for _, side := range []struct {
		s, e, w int
		dir     float64
	}{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, 1},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist, -1},
	} {
		p[side.e].X, p[side.e].Y = p[side.s].X, p[side.s].Y+0.15
		p[side.w].X, p[side.w].Y = segment(p[side.e], 0.15, deg, side.dir)
	}
	return p
}

// LegPose returns a standing pose whose knees are bent to deg degrees
// (hip-knee-ankle) on both sides. Thighs hang vertically.
func LegPose(deg float64) pose.Pose {
	p := StandingPose()
	for _, side := range []struct {
		h, k, a int
		dir     float64
	}{
		{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle, 1},
		{pose.RightHip, pose.RightKnee, pose.RightAnkle, -1},
	} {
		p[side.k].X, p[side.k].Y = p[side.h].X, p[side.h].Y+0.2
		p[side.a].X, p[side.a].Y = segment(p[side.k], 0.2, deg, side.dir)
	}
	return p
}

// NeckPose returns a standing pose whose ears sit deg degrees above the
// shoulder line (ear-shoulder-opposite shoulder) on both sides.
func NeckPose(deg float64) pose.Pose {
	p := StandingPose()
	rad := deg * math.Pi / 180
	ls, rs := p[pose.LeftShoulder], p[pose.RightShoulder]
	p[pose.LeftEar].X = ls.X - 0.1*math.Cos(rad)
	p[pose.LeftEar].Y = ls.Y - 0.1*math.Sin(rad)
	p[pose.RightEar].X = rs.X + 0.1*math.Cos(rad)
	p[pose.RightEar].Y = rs.Y - 0.1*math.Sin(rad)
	return p
}

// Translate shifts every joint by dx, dy.
func Translate(p pose.Pose, dx, dy float64) pose.Pose {
	out := p.Clone()
	for i := range out {
		out[i].X += dx
		out[i].Y += dy
	}
	return out
}
