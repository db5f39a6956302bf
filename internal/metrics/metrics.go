// Package metrics exposes the scheduler's running counters as
// Prometheus metrics: jobs run, jobs stolen, jobs completed via assist,
// and worker utilization. It is a profiler.Sink implementation, wired in
// alongside (or instead of) a log or gRPC sink; the metrics package has
// no knowledge of the event source beyond the Observe call it receives.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

// Collector accumulates scheduler events into Prometheus metrics.
// Implements profiler.Sink.
type Collector struct {
	jobsRun      prometheus.Counter
	jobsStolen   prometheus.Counter
	jobsAssisted prometheus.Counter

	workersAwoken prometheus.Counter
	workersUsed   prometheus.Counter

	activeWorkers prometheus.Gauge
}

// NewCollector constructs and registers a Collector against the default
// Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		jobsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "falconjobs_jobs_run_total",
			Help: "Total number of jobs run to completion by a pooled worker; assist-path runs are counted in falconjobs_jobs_assisted_total",
		}),
		jobsStolen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "falconjobs_jobs_stolen_total",
			Help: "Total number of jobs popped from a peer's queue rather than the popping worker's own",
		}),
		jobsAssisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "falconjobs_jobs_assisted_total",
			Help: "Total number of jobs run by a caller's assist path rather than a pooled worker",
		}),
		workersAwoken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "falconjobs_worker_awoken_total",
			Help: "Total number of times a worker found nothing runnable and went back to sleep",
		}),
		workersUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "falconjobs_worker_used_total",
			Help: "Total number of times a worker picked up a job to run",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "falconjobs_active_workers",
			Help: "Current number of workers mid-job",
		}),
	}

	prometheus.MustRegister(
		c.jobsRun,
		c.jobsStolen,
		c.jobsAssisted,
		c.workersAwoken,
		c.workersUsed,
		c.activeWorkers,
	)

	return c
}

// Observe implements profiler.Sink.
func (c *Collector) Observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64) {
	switch event {
	case types.EventJobRun:
		c.jobsRun.Inc()
	case types.EventJobStolen:
		c.jobsStolen.Inc()
	case types.EventJobRunAssisted:
		c.jobsAssisted.Inc()
	case types.EventWorkerAwoken:
		c.workersAwoken.Inc()
	case types.EventWorkerUsed:
		c.workersUsed.Inc()
	}
}

// SetActiveWorkers updates the active-worker gauge. Intended to be
// polled periodically from Manager.ActiveWorkers rather than driven by
// events, since "currently active" isn't itself an event.
func (c *Collector) SetActiveWorkers(n int64) {
	c.activeWorkers.Set(float64(n))
}

// StartServer starts a Prometheus /metrics HTTP endpoint on port. Blocks
// until the server stops or errors; callers typically run it in its own
// goroutine.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
