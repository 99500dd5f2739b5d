package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/models"
)

type attemptRequest struct {
	TaskID       string           `json:"task_id"`
	TaskPosition *int             `json:"task_position"`
	Stats        models.TaskStats `json:"stats"`
}

type activityParams struct {
	userID, courseID, activityID string
}

func activityFromRequest(r *http.Request) activityParams {
	return activityParams{
		userID:     chi.URLParam(r, "userID"),
		courseID:   chi.URLParam(r, "courseID"),
		activityID: chi.URLParam(r, "activityID"),
	}
}

func (s *Server) handleStartActivity(w http.ResponseWriter, r *http.Request) {
	p := activityFromRequest(r)
	if err := s.ProgressService.StartActivity(r.Context(), p.userID, p.courseID, p.activityID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	p := activityFromRequest(r)
	var req attemptRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	in := models.AttemptInput{
		UserID:       p.userID,
		CourseID:     p.courseID,
		ActivityID:   p.activityID,
		TaskID:       req.TaskID,
		TaskPosition: req.TaskPosition,
		Stats:        req.Stats,
	}

	if isAsync(r) {
		s.enqueue(w, r, func() error { return s.JobQueue.EnqueueAttempt(in) })
		return
	}

	res, err := s.ProgressService.RecordAttempt(r.Context(), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleCompleteActivity(w http.ResponseWriter, r *http.Request) {
	p := activityFromRequest(r)

	if isAsync(r) {
		s.enqueue(w, r, func() error {
			return s.JobQueue.EnqueueCompletion(p.userID, p.courseID, p.activityID)
		})
		return
	}

	report, err := s.ProgressService.CompleteActivity(r.Context(), p.userID, p.courseID, p.activityID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleResetActivity(w http.ResponseWriter, r *http.Request) {
	p := activityFromRequest(r)
	if err := s.ProgressService.ResetActivity(r.Context(), p.userID, p.courseID, p.activityID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivityReport(w http.ResponseWriter, r *http.Request) {
	p := activityFromRequest(r)
	report, err := s.ProgressService.ActivityReport(r.Context(), p.userID, p.courseID, p.activityID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// enqueue hands a write to the background queue and answers 202.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request, submit func() error) {
	if s.JobQueue == nil {
		handleError(w, r, errors.NewBadRequestError("async writes are not enabled"))
		return
	}
	if err := submit(); err != nil {
		handleError(w, r, errors.NewUnavailableError("write queue unavailable", err))
		return
	}
	logger.FromContext(r.Context()).Debug("write queued")
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}
