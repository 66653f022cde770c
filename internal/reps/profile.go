// Package reps counts exercise repetitions from a stream of normalized
// poses. Each exercise has a Profile describing which joint angle to
// follow and the hysteresis band that separates the two phases of a rep.
package reps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/pose"
)

// ErrUnknownProfile is returned for exercises with no rep profile.
var ErrUnknownProfile = errors.New("reps: unknown exercise profile")

// Direction is the phase a rep state machine is waiting to complete.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Movement selects the state machine variant.
type Movement string

const (
	MovementVertical Movement = "vertical"
	MovementLateral  Movement = "lateral"
)

// Region names the joint triplets whose mean angle drives counting.
type Region string

const (
	// RegionArm follows the shoulder-elbow-wrist angle; position is mean
	// wrist height.
	RegionArm Region = "arm"
	// RegionLeg follows the hip-knee-ankle angle; position is mean hip
	// height.
	RegionLeg Region = "leg"
	// RegionNeck follows the ear-shoulder-opposite shoulder angle; position
	// is mean ear x.
	RegionNeck Region = "neck"
)

// Profile parameterises rep counting for one exercise.
type Profile struct {
	Direction  Direction `yaml:"direction"`
	Threshold  float64   `yaml:"threshold"`
	MinAngle   float64   `yaml:"min_angle"`
	MaxAngle   float64   `yaml:"max_angle"`
	Region     Region    `yaml:"region"`
	Movement   Movement  `yaml:"movement"`
	PeakValley bool      `yaml:"peak_valley"`
}

// Validate checks the profile is internally consistent.
func (p Profile) Validate() error {
	switch p.Region {
	case RegionArm, RegionLeg, RegionNeck:
	default:
		return fmt.Errorf("unknown region %q", p.Region)
	}
	switch p.Movement {
	case MovementVertical:
		if p.Direction != DirectionUp && p.Direction != DirectionDown {
			return fmt.Errorf("vertical movement needs direction up or down, got %q", p.Direction)
		}
		if p.PeakValley {
			return errors.New("peak_valley applies only to lateral movement")
		}
	case MovementLateral:
		if p.Direction != DirectionLeft && p.Direction != DirectionRight {
			return fmt.Errorf("lateral movement needs direction left or right, got %q", p.Direction)
		}
	default:
		return fmt.Errorf("unknown movement %q", p.Movement)
	}
	if p.MinAngle >= p.MaxAngle {
		return fmt.Errorf("min_angle %.1f must be below max_angle %.1f", p.MinAngle, p.MaxAngle)
	}
	if p.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %f", p.Threshold)
	}
	return nil
}

// DefaultProfiles returns the built-in profile set keyed by normalized
// exercise name.
func DefaultProfiles() map[string]Profile {
	arm := func(d Direction) Profile {
		return Profile{Direction: d, Threshold: 0.15, MinAngle: 45, MaxAngle: 90, Region: RegionArm, Movement: MovementVertical}
	}
	leg := func(d Direction) Profile {
		return Profile{Direction: d, Threshold: 0.2, MinAngle: 70, MaxAngle: 100, Region: RegionLeg, Movement: MovementVertical}
	}
	return map[string]Profile{
		"barbell bench press": arm(DirectionUp),
		"barbell squat":       leg(DirectionDown),
		"push-up":             arm(DirectionDown),
		"pull-up":             arm(DirectionUp),
		"deadlift":            leg(DirectionDown),
		"shoulder press":      arm(DirectionUp),
		"neck side stretch": {
			Direction:  DirectionLeft,
			Threshold:  0.05,
			MinAngle:   15,
			MaxAngle:   40,
			Region:     RegionNeck,
			Movement:   MovementLateral,
			PeakValley: true,
		},
	}
}

// profileOverride carries the optional fields of one YAML entry.
type profileOverride struct {
	Direction  *Direction `yaml:"direction"`
	Threshold  *float64   `yaml:"threshold"`
	MinAngle   *float64   `yaml:"min_angle"`
	MaxAngle   *float64   `yaml:"max_angle"`
	Region     *Region    `yaml:"region"`
	Movement   *Movement  `yaml:"movement"`
	PeakValley *bool      `yaml:"peak_valley"`
}

type profileFile struct {
	Profiles map[string]profileOverride `yaml:"profiles"`
}

func (o profileOverride) apply(p Profile) Profile {
	if o.Direction != nil {
		p.Direction = *o.Direction
	}
	if o.Threshold != nil {
		p.Threshold = *o.Threshold
	}
	if o.MinAngle != nil {
		p.MinAngle = *o.MinAngle
	}
	if o.MaxAngle != nil {
		p.MaxAngle = *o.MaxAngle
	}
	if o.Region != nil {
		p.Region = *o.Region
	}
	if o.Movement != nil {
		p.Movement = *o.Movement
	}
	if o.PeakValley != nil {
		p.PeakValley = *o.PeakValley
	}
	return p
}

// ParseProfiles merges YAML overrides onto DefaultProfiles. Entries for
// unknown exercises define new profiles and must be complete.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles YAML: %w", err)
	}
	out := DefaultProfiles()
	for name, o := range f.Profiles {
		key := form.NormalizeName(name)
		p := o.apply(out[key])
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", key, err)
		}
		out[key] = p
	}
	return out, nil
}

// LoadProfiles reads a YAML profile file. An empty path returns the
// defaults.
func LoadProfiles(path string) (map[string]Profile, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	return ParseProfiles(data)
}

// triplets returns the left and right joint triplets for a region.
func (r Region) triplets() (left, right [3]int) {
	switch r {
	case RegionArm:
		return [3]int{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
			[3]int{pose.RightShoulder, pose.RightElbow, pose.RightWrist}
	case RegionLeg:
		return [3]int{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
			[3]int{pose.RightHip, pose.RightKnee, pose.RightAnkle}
	default:
		return [3]int{pose.LeftEar, pose.LeftShoulder, pose.RightShoulder},
			[3]int{pose.RightEar, pose.RightShoulder, pose.LeftShoulder}
	}
}

// Sample extracts the tracked angle and position from a pose. ok is false
// when any joint is absent or not visible, or an angle is undefined.
func (r Region) Sample(p pose.Pose) (Sample, bool) {
	left, right := r.triplets()
	if !p.Visible(left[:]...) || !p.Visible(right[:]...) {
		return Sample{}, false
	}
	la, okL := p.JointAngle(left[0], left[1], left[2])
	ra, okR := p.JointAngle(right[0], right[1], right[2])
	if !okL || !okR {
		return Sample{}, false
	}
	s := Sample{Angle: (la + ra) / 2}
	switch r {
	case RegionArm:
		s.Position = (p[pose.LeftWrist].Y + p[pose.RightWrist].Y) / 2
	case RegionLeg:
		s.Position = (p[pose.LeftHip].Y + p[pose.RightHip].Y) / 2
	default:
		s.Position = (p[pose.LeftEar].X + p[pose.RightEar].X) / 2
	}
	return s, true
}
