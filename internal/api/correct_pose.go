package api

import (
	"net/http"

	"github.com/banshee-data/formsense/internal/correction"
	"github.com/banshee-data/formsense/internal/httputil"
)

// stubConfidence is the exercise confidence reported by the development
// correction endpoint.
const stubConfidence = 0.8

type correctPoseRequest struct {
	Pose     []correction.Point `json:"pose"`
	Exercise string             `json:"exercise"`
}

type correctPoseResponse struct {
	CorrectedPose      [][3]float64 `json:"correctedPose"`
	ExerciseConfidence float64      `json:"exerciseConfidence"`
}

// handleCorrectPose stands in for the correction model during
// development: it answers with the submitted pose unchanged.
func handleCorrectPose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req correctPoseRequest
	if err := httputil.DecodeJSONBody(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if len(req.Pose) == 0 || req.Exercise == "" {
		httputil.BadRequest(w, "Pose and exercise are required")
		return
	}
	out := make([][3]float64, len(req.Pose))
	for i, p := range req.Pose {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	httputil.WriteJSONOK(w, correctPoseResponse{CorrectedPose: out, ExerciseConfidence: stubConfidence})
}
