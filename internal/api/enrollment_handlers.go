package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/learnprogress/internal/logger"
)

type enrollRequest struct {
	EnrolledBy string `json:"enrolled_by"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	courseID := chi.URLParam(r, "courseID")

	var req enrollRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	e, err := s.EnrollmentService.Enroll(r.Context(), userID, courseID, req.EnrolledBy)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("user %s enrolled in %s", userID, courseID)
	writeJSON(w, r, http.StatusOK, e)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := s.EnrollmentService.ListEnrollments(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"enrollments": list})
}

func (s *Server) handleCourseProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.EnrollmentService.GetCourseProgress(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "courseID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

func (s *Server) handleReloadCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if err := s.ContentService.Reload(r.Context(), courseID); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"reloaded": courseID})
}
