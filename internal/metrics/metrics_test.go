package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/content"
	"github.com/vytor/learnprogress/internal/docstore"
	"github.com/vytor/learnprogress/internal/worker"
)

var (
	_ docstore.Observer     = (*Registry)(nil)
	_ content.CacheRecorder = (*Registry)(nil)
	_ worker.Outcome         = (*Registry)(nil)
)

func TestRegistry_Counters(t *testing.T) {
	r := New()

	r.TxAttempt()
	r.TxAttempt()
	r.TxConflict()
	r.TxCommit()
	r.CacheHit()
	r.CacheMiss()
	r.CacheMiss()
	r.CacheInvalidation()
	r.JobDone("record_attempt", JobSucceeded)
	r.JobDone("record_attempt", JobFailed)
	r.JobDone("record_attempt", JobFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.txAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.txConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.txCommits))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheInvalidations))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.jobs.WithLabelValues("record_attempt", JobFailed)))
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.ObserveRequest(http.MethodGet, "/health", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "learnprogress_http_request_duration_seconds_count")
	assert.Contains(t, body, `route="/health"`)
	assert.Contains(t, body, "learnprogress_store_tx_commits_total 0")
}
