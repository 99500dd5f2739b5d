// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "learnprogress"

// Job outcomes.
const (
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobRejected  = "rejected"
)

// Registry owns every collector on its own prometheus.Registry, so tests can
// build as many as they like.
type Registry struct {
	reg *prometheus.Registry

	txAttempts  prometheus.Counter
	txConflicts prometheus.Counter
	txCommits   prometheus.Counter

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter

	jobs            *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		txAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "tx_attempts_total",
			Help: "Transaction bodies run, retries included.",
		}),
		txConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "tx_conflicts_total",
			Help: "Transactions aborted because a read document changed.",
		}),
		txCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "tx_commits_total",
			Help: "Transactions committed.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "content_cache", Name: "hits_total",
			Help: "Course reads served from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "content_cache", Name: "misses_total",
			Help: "Course reads that loaded content.",
		}),
		cacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "content_cache", Name: "invalidations_total",
			Help: "Explicit cache invalidations.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "worker", Name: "jobs_total",
			Help: "Background jobs by name and outcome.",
		}, []string{"job", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.txAttempts, r.txConflicts, r.txCommits,
		r.cacheHits, r.cacheMisses, r.cacheInvalidations,
		r.jobs, r.requestDuration,
	)
	return r
}

func (r *Registry) TxAttempt()  { r.txAttempts.Inc() }
func (r *Registry) TxConflict() { r.txConflicts.Inc() }
func (r *Registry) TxCommit()   { r.txCommits.Inc() }

func (r *Registry) CacheHit()          { r.cacheHits.Inc() }
func (r *Registry) CacheMiss()         { r.cacheMisses.Inc() }
func (r *Registry) CacheInvalidation() { r.cacheInvalidations.Inc() }

// JobDone records the outcome of a background job.
func (r *Registry) JobDone(job, outcome string) {
	r.jobs.WithLabelValues(job, outcome).Inc()
}

// ObserveRequest records one HTTP request. route is the matched pattern,
// not the raw path.
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	r.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
