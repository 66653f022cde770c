package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/formsense/internal/httputil"
	"github.com/banshee-data/formsense/internal/pose"
)

// ErrLabelMismatch is returned when the classifier output length does not
// match the label list.
var ErrLabelMismatch = errors.New("classify: prediction length does not match labels")

// PoseFeatures flattens a normalized pose into the classifier input:
// x, y and score for each joint in index order.
func PoseFeatures(p pose.Pose) []float64 {
	out := make([]float64, 0, len(p)*3)
	for _, kp := range p {
		out = append(out, kp.X, kp.Y, kp.Score)
	}
	return out
}

// RemoteClassifier calls an HTTP model server:
// POST {"features": [...]} → {"probabilities": [...]}.
type RemoteClassifier struct {
	client httputil.HTTPClient
	url    string
}

// NewRemoteClassifier returns a Classifier backed by the model at url.
func NewRemoteClassifier(client httputil.HTTPClient, url string) *RemoteClassifier {
	return &RemoteClassifier{client: client, url: url}
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// Predict implements Classifier.
func (c *RemoteClassifier) Predict(ctx context.Context, features []float64) ([]float64, error) {
	var resp predictResponse
	if err := httputil.PostJSON(ctx, c.client, c.url, predictRequest{Features: features}, &resp); err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}
	if len(resp.Probabilities) == 0 {
		return nil, ErrEmptyVector
	}
	return resp.Probabilities, nil
}

// Recognizer runs the classifier on a pose, smooths the output and picks
// the top label.
type Recognizer struct {
	model    Classifier
	smoother *PredictionSmoother
	labels   Labels
}

// NewRecognizer wires a classifier, a smoothing window and its labels.
func NewRecognizer(model Classifier, labels Labels, window int) *Recognizer {
	return &Recognizer{model: model, smoother: NewPredictionSmoother(window), labels: labels}
}

// Recognize classifies p and returns the best label over the smoothed
// window.
func (r *Recognizer) Recognize(ctx context.Context, p pose.Pose) (Prediction, error) {
	probs, err := r.model.Predict(ctx, PoseFeatures(p))
	if err != nil {
		return Prediction{}, err
	}
	if len(probs) != len(r.labels) {
		return Prediction{}, fmt.Errorf("%w: got %d, want %d", ErrLabelMismatch, len(probs), len(r.labels))
	}
	mean, err := r.smoother.Push(probs)
	if err != nil {
		return Prediction{}, err
	}
	pred, ok := r.labels.Top(mean)
	if !ok {
		return Prediction{}, fmt.Errorf("classify: no valid prediction in %v", mean)
	}
	return pred, nil
}

// Reset clears the smoothing window.
func (r *Recognizer) Reset() {
	r.smoother.Reset()
}
