package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	r.Post("/courses/{courseID}/reload", s.handleReloadCourse)

	r.Route("/users/{userID}/courses", func(r chi.Router) {
		r.Get("/", s.handleListEnrollments)
		r.Route("/{courseID}", func(r chi.Router) {
			r.Post("/enroll", s.handleEnroll)
			r.Get("/progress", s.handleCourseProgress)
			r.Route("/activities/{activityID}", func(r chi.Router) {
				r.Post("/start", s.handleStartActivity)
				r.Post("/attempts", s.handleRecordAttempt)
				r.Post("/complete", s.handleCompleteActivity)
				r.Post("/reset", s.handleResetActivity)
				r.Get("/report", s.handleActivityReport)
			})
		})
	})
	return r
}
