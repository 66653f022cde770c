package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrNoLabels is returned when a label file holds no labels.
var ErrNoLabels = errors.New("classify: label list is empty")

// Labels is the ordered class list matching classifier output indices.
type Labels []string

// LoadLabels reads a JSON array of exercise names. Names are lowercased
// and trimmed so they match rule and profile keys.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse labels JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoLabels
	}
	out := make(Labels, len(raw))
	for i, l := range raw {
		out[i] = strings.ToLower(strings.TrimSpace(l))
	}
	return out, nil
}

// Prediction is the best label for a probability vector.
type Prediction struct {
	Label      string  `json:"label"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// Top returns the highest-probability label. ok is false when probs is
// empty, contains NaN, or its length differs from the label count.
func (l Labels) Top(probs []float64) (Prediction, bool) {
	if len(probs) == 0 || len(probs) != len(l) || floats.HasNaN(probs) {
		return Prediction{}, false
	}
	idx := floats.MaxIdx(probs)
	if math.IsInf(probs[idx], 0) {
		return Prediction{}, false
	}
	return Prediction{Label: l[idx], Index: idx, Confidence: probs[idx]}, true
}
