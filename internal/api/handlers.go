package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/vytor/learnprogress/internal/errors"
	"github.com/vytor/learnprogress/internal/jobs"
	"github.com/vytor/learnprogress/internal/logger"
	"github.com/vytor/learnprogress/internal/services"
)

// ReadyChecker is a dependency the readiness probe must be able to reach.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// RequestObserver records request latency by matched route.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

type Server struct {
	EnrollmentService services.EnrollmentService
	ProgressService   services.ProgressService
	ContentService    services.ContentService
	JobQueue          jobs.JobQueue

	// ReadyChecks are consulted by /ready, keyed by the name used in logs.
	ReadyChecks    map[string]ReadyChecker
	Metrics        RequestObserver
	MetricsHandler http.Handler
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

func isAsync(r *http.Request) bool {
	switch r.URL.Query().Get("async") {
	case "1", "true", "yes":
		return true
	}
	return false
}
