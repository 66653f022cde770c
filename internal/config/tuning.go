// Package config loads the tuning file that parameterises the per-frame
// pipeline: smoothing, gating, rep debouncing and the remote correction
// loop.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning configuration. Every field is optional;
// the Get* accessors supply defaults for anything omitted.
type TuningConfig struct {
	// Signal conditioning
	SmoothingFactor      *float64 `json:"smoothing_factor,omitempty"`
	MinPoseScore         *float64 `json:"min_pose_score,omitempty"`
	ReadyVisibilityRatio *float64 `json:"ready_visibility_ratio,omitempty"`

	// Classification
	PredictionWindow *int `json:"prediction_window,omitempty"`

	// Rep counting
	RepCooldown      *string `json:"rep_cooldown,omitempty"` // duration string like "2s"
	AngleHistorySize *int    `json:"angle_history_size,omitempty"`
	AngleTrailSize   *int    `json:"angle_trail_size,omitempty"`

	// Remote correction
	CorrectionTimeout  *string `json:"correction_timeout,omitempty"`
	CorrectionInterval *string `json:"correction_interval,omitempty"`

	// Event sinks
	RecorderQueueSize *int `json:"recorder_queue_size,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The path must have a .json extension and the file must be under 1MB.
// Omitted fields fall back to defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are in range.
func (c *TuningConfig) Validate() error {
	if c.SmoothingFactor != nil && (*c.SmoothingFactor < 0 || *c.SmoothingFactor >= 1) {
		return fmt.Errorf("smoothing_factor must be in [0, 1), got %f", *c.SmoothingFactor)
	}
	if c.MinPoseScore != nil && (*c.MinPoseScore < 0 || *c.MinPoseScore > 1) {
		return fmt.Errorf("min_pose_score must be between 0 and 1, got %f", *c.MinPoseScore)
	}
	if c.ReadyVisibilityRatio != nil && (*c.ReadyVisibilityRatio < 0 || *c.ReadyVisibilityRatio > 1) {
		return fmt.Errorf("ready_visibility_ratio must be between 0 and 1, got %f", *c.ReadyVisibilityRatio)
	}
	for name, v := range map[string]*int{
		"prediction_window":   c.PredictionWindow,
		"angle_history_size":  c.AngleHistorySize,
		"angle_trail_size":    c.AngleTrailSize,
		"recorder_queue_size": c.RecorderQueueSize,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}
	if c.AngleHistorySize != nil && *c.AngleHistorySize < 5 {
		return fmt.Errorf("angle_history_size must be at least 5, got %d", *c.AngleHistorySize)
	}
	for name, v := range map[string]*string{
		"rep_cooldown":        c.RepCooldown,
		"correction_timeout":  c.CorrectionTimeout,
		"correction_interval": c.CorrectionInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, d)
		}
	}
	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetSmoothingFactor returns the previous-frame weight of the keypoint
// smoother.
func (c *TuningConfig) GetSmoothingFactor() float64 {
	if c.SmoothingFactor == nil {
		return 0.4
	}
	return *c.SmoothingFactor
}

// GetMinPoseScore returns the overall detector score below which a frame
// is not processed.
func (c *TuningConfig) GetMinPoseScore() float64 {
	if c.MinPoseScore == nil {
		return 0.25
	}
	return *c.MinPoseScore
}

// GetReadyVisibilityRatio returns the visible-joint ratio needed for the
// "ready" status.
func (c *TuningConfig) GetReadyVisibilityRatio() float64 {
	if c.ReadyVisibilityRatio == nil {
		return 0.5
	}
	return *c.ReadyVisibilityRatio
}

// GetPredictionWindow returns the classifier smoothing window length.
func (c *TuningConfig) GetPredictionWindow() int {
	if c.PredictionWindow == nil {
		return 10
	}
	return *c.PredictionWindow
}

// GetRepCooldown returns the minimum time between accepted reps.
func (c *TuningConfig) GetRepCooldown() time.Duration {
	return durationOr(c.RepCooldown, 2*time.Second)
}

// GetAngleHistorySize returns the peak/valley angle history length.
func (c *TuningConfig) GetAngleHistorySize() int {
	if c.AngleHistorySize == nil {
		return 10
	}
	return *c.AngleHistorySize
}

// GetAngleTrailSize returns how many recent rep angles a session keeps for
// the debug charts.
func (c *TuningConfig) GetAngleTrailSize() int {
	if c.AngleTrailSize == nil {
		return 300
	}
	return *c.AngleTrailSize
}

// GetCorrectionTimeout bounds one call to the correction service.
func (c *TuningConfig) GetCorrectionTimeout() time.Duration {
	return durationOr(c.CorrectionTimeout, 5*time.Second)
}

// GetCorrectionInterval is the minimum gap between correction submissions.
func (c *TuningConfig) GetCorrectionInterval() time.Duration {
	return durationOr(c.CorrectionInterval, 500*time.Millisecond)
}

// GetRecorderQueueSize returns the buffered event count of async sinks.
func (c *TuningConfig) GetRecorderQueueSize() int {
	if c.RecorderQueueSize == nil {
		return 64
	}
	return *c.RecorderQueueSize
}
