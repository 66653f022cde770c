package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/formsense/internal/db"
	"github.com/banshee-data/formsense/internal/httputil"
	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/session"
)

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var f session.Frame
	if err := httputil.DecodeJSONBody(w, r, &f); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if strings.TrimSpace(f.Exercise) == "" {
		httputil.BadRequest(w, "exercise is required")
		return
	}
	httputil.WriteJSONOK(w, s.session.ProcessFrame(r.Context(), f))
}

type repsResponse struct {
	Counts map[string]int `json:"counts"`
}

func (s *Server) handleReps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, repsResponse{Counts: s.session.Counts()})
}

func (s *Server) handleRepsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	exercise := r.URL.Query().Get("exercise")
	if strings.TrimSpace(exercise) == "" {
		httputil.BadRequest(w, "exercise is required")
		return
	}
	if err := s.session.Reset(r.Context(), exercise); err != nil {
		if errors.Is(err, reps.ErrUnknownProfile) {
			httputil.WriteJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, repsResponse{Counts: s.session.Counts()})
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string][]string{"exercises": s.session.Exercises()})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	pred, err := s.session.Recognize(r.Context())
	switch {
	case errors.Is(err, session.ErrNoRecognizer):
		httputil.WriteJSONError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, session.ErrNoPose):
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
	case err != nil:
		httputil.WriteJSONError(w, http.StatusBadGateway, err.Error())
	default:
		httputil.WriteJSONOK(w, pred)
	}
}

func (s *Server) handleWorkoutHistory(w http.ResponseWriter, r *http.Request) {
	if s.workouts == nil {
		httputil.WriteJSONError(w, http.StatusNotFound, "workout history is not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				httputil.BadRequest(w, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		workouts, err := s.workouts.ListWorkouts(r.Context(), limit)
		if err != nil {
			httputil.InternalServerError(w, "Failed to get workout history")
			return
		}
		httputil.WriteJSONOK(w, workouts)
	case http.MethodPost:
		var in db.Workout
		if err := httputil.DecodeJSONBody(w, r, &in); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		saved, err := s.workouts.RecordWorkout(r.Context(), in)
		if errors.Is(err, db.ErrInvalidWorkout) {
			httputil.BadRequest(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, "Failed to save workout")
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, saved)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	c := s.tuning
	httputil.WriteJSONOK(w, map[string]interface{}{
		"smoothing_factor":       c.GetSmoothingFactor(),
		"min_pose_score":         c.GetMinPoseScore(),
		"ready_visibility_ratio": c.GetReadyVisibilityRatio(),
		"prediction_window":      c.GetPredictionWindow(),
		"rep_cooldown":           c.GetRepCooldown().String(),
		"angle_history_size":     c.GetAngleHistorySize(),
		"angle_trail_size":       c.GetAngleTrailSize(),
		"correction_timeout":     c.GetCorrectionTimeout().String(),
		"correction_interval":    c.GetCorrectionInterval().String(),
		"recorder_queue_size":    c.GetRecorderQueueSize(),
	})
}
