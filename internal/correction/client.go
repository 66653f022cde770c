// Package correction talks to the remote pose-correction model.
//
// A Client converts a detector-layout pose into the 17-joint reference
// layout, sends it in unit scale and maps the corrected pose back into the
// frame it came from. A Worker runs those calls off the frame loop with a
// latest-wins mailbox.
package correction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/formsense/internal/httputil"
	"github.com/banshee-data/formsense/internal/pose"
	"github.com/banshee-data/formsense/internal/timeutil"
)

// ErrCorrectionUnavailable wraps every failure of a correction call. It is
// recoverable: callers continue without a corrected pose.
var ErrCorrectionUnavailable = errors.New("correction unavailable")

// Point is one joint of a correction request.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Request is the body POSTed to the correction service.
type Request struct {
	Pose     []Point `json:"pose"`
	Exercise string  `json:"exercise"`
}

// Confidence decodes exerciseConfidence, which the service sends either as
// an array or as a bare number.
type Confidence []float64

// UnmarshalJSON accepts a number, an array of numbers or null.
func (c *Confidence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = nil
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var v []float64
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*c = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("exerciseConfidence: %w", err)
	}
	*c = Confidence{f}
	return nil
}

// Response is the body returned by the correction service.
type Response struct {
	CorrectedPose      [][3]float64 `json:"correctedPose"`
	ExerciseConfidence Confidence   `json:"exerciseConfidence"`
}

// Result is a decoded correction, in the reference layout and in the same
// coordinate frame as the pose that was submitted.
type Result struct {
	Exercise   string
	Pose       pose.Pose
	Confidence []float64
	Time       time.Time
}

// Client calls the correction service at URL.
type Client struct {
	http  httputil.HTTPClient
	url   string
	clock timeutil.Clock
}

// NewClient returns a Client. A nil clock uses the wall clock.
func NewClient(c httputil.HTTPClient, url string, clock timeutil.Clock) *Client {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Client{http: c, url: url, clock: clock}
}

// NewRequest builds the wire request for a detector-layout pose and returns
// the frame needed to map the answer back.
func NewRequest(exercise string, p pose.Pose) (Request, pose.Frame) {
	unit, frame := pose.UnitScaleFrame(pose.ToReference(p))
	req := Request{Exercise: exercise, Pose: make([]Point, len(unit))}
	for i, kp := range unit {
		req.Pose[i] = Point{X: kp.X, Y: kp.Y, Z: kp.Z}
	}
	return req, frame
}

// Correct sends p to the service and returns the corrected reference pose.
// Joint scores are taken from the remapped input, since the service
// returns positions only.
func (c *Client) Correct(ctx context.Context, exercise string, p pose.Pose) (Result, error) {
	ref := pose.ToReference(p)
	req, frame := NewRequest(exercise, p)

	var resp Response
	if err := httputil.PostJSON(ctx, c.http, c.url, req, &resp); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCorrectionUnavailable, err)
	}
	if len(resp.CorrectedPose) != pose.ReferenceJoints {
		return Result{}, fmt.Errorf("%w: got %d joints, want %d",
			ErrCorrectionUnavailable, len(resp.CorrectedPose), pose.ReferenceJoints)
	}

	unit := make(pose.Pose, pose.ReferenceJoints)
	for i, xyz := range resp.CorrectedPose {
		unit[i] = pose.Keypoint{X: xyz[0], Y: xyz[1], Z: xyz[2], Score: ref[i].Score}
	}
	return Result{
		Exercise:   exercise,
		Pose:       frame.Restore(unit),
		Confidence: resp.ExerciseConfidence,
		Time:       c.clock.Now(),
	}, nil
}
