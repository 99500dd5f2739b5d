package api

import (
	"net/http"
	"sort"

	"github.com/vytor/learnprogress/internal/logger"
)

// handleHealth returns a liveness probe - always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 when every ready check passes, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names := make([]string, 0, len(s.ReadyChecks))
	for name := range s.ReadyChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := map[string]string{}
	for _, name := range names {
		if err := s.ReadyChecks[name].Ready(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		handleReadyFailure(w, r, failed)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

func handleReadyFailure(w http.ResponseWriter, r *http.Request, failed map[string]string) {
	log := logger.FromContext(r.Context())
	for name, reason := range failed {
		log.Warn("readiness check failed - %s: %s", name, reason)
	}
	writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"unavailable": failed})
}
