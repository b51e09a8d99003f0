package metrics

import (
	"sync/atomic"
	"time"

	"github.com/pzverkov/kdcauth/pkg/logging"
	"github.com/pzverkov/kdcauth/pkg/workerpool"
)

// PoolMetricsObserver implements workerpool.Observer and records metrics
// for the controller's task pool.
type PoolMetricsObserver struct {
	submittedTotal atomic.Uint64
	completedTotal atomic.Uint64
	failedTotal    atomic.Uint64
	queueFullTotal atomic.Uint64

	runLatency *Histogram

	logger *logging.Logger

	poolName string
}

// PoolRunLatencyBuckets buckets task run duration, in milliseconds.
var PoolRunLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}

// PoolMetricsObserverConfig configures a pool metrics observer.
type PoolMetricsObserverConfig struct {
	Logger   *logging.Logger
	PoolName string
}

// NewPoolMetricsObserver creates a new pool metrics observer.
func NewPoolMetricsObserver(cfg PoolMetricsObserverConfig) *PoolMetricsObserver {
	if cfg.Logger == nil {
		cfg.Logger = logging.GetLogger()
	}
	if cfg.PoolName == "" {
		cfg.PoolName = "default"
	}

	return &PoolMetricsObserver{
		runLatency: NewHistogram(PoolRunLatencyBuckets),
		logger:     cfg.Logger.Named("pool").With(logging.Fields{"pool": cfg.PoolName}),
		poolName:   cfg.PoolName,
	}
}

// Ensure PoolMetricsObserver implements workerpool.Observer.
var _ workerpool.Observer = (*PoolMetricsObserver)(nil)

// OnSubmit implements workerpool.Observer.
func (o *PoolMetricsObserver) OnSubmit() {
	o.submittedTotal.Add(1)
}

// OnQueueFull implements workerpool.Observer.
func (o *PoolMetricsObserver) OnQueueFull() {
	o.queueFullTotal.Add(1)
	o.logger.Warn("queue full")
}

// OnComplete implements workerpool.Observer.
func (o *PoolMetricsObserver) OnComplete(runDuration time.Duration, succeeded bool) {
	o.completedTotal.Add(1)
	o.runLatency.Observe(float64(runDuration.Milliseconds()))
	if !succeeded {
		o.failedTotal.Add(1)
		o.logger.Debug("task failed", logging.Fields{"run_ms": runDuration.Milliseconds()})
	}
}

// OnStats implements workerpool.Observer.
func (o *PoolMetricsObserver) OnStats(stats workerpool.StatsSnapshot) {
	o.logger.Debug("pool stats", logging.Fields{
		"submitted":     stats.SubmittedTotal,
		"completed":     stats.CompletedTotal,
		"failed":        stats.FailedTotal,
		"queue_full":    stats.QueueFullTotal,
		"avg_wait_ms":   stats.AvgQueueWaitMs,
		"avg_run_ms":    stats.AvgRunMs,
		"peak_wait_ms":  stats.PeakQueueWaitMs,
		"uptime_sec":    stats.Uptime.Seconds(),
	})
}

// PoolMetricsSnapshot is a snapshot of pool metrics.
type PoolMetricsSnapshot struct {
	SubmittedTotal uint64
	CompletedTotal uint64
	FailedTotal    uint64
	QueueFullTotal uint64

	RunLatency HistogramSummary

	PoolName string
}

// Snapshot returns a point-in-time snapshot of pool metrics.
func (o *PoolMetricsObserver) Snapshot() PoolMetricsSnapshot {
	return PoolMetricsSnapshot{
		SubmittedTotal: o.submittedTotal.Load(),
		CompletedTotal: o.completedTotal.Load(),
		FailedTotal:    o.failedTotal.Load(),
		QueueFullTotal: o.queueFullTotal.Load(),
		RunLatency:     o.runLatency.Summary(),
		PoolName:       o.poolName,
	}
}

// Reset clears all metrics (useful for testing).
func (o *PoolMetricsObserver) Reset() {
	o.submittedTotal.Store(0)
	o.completedTotal.Store(0)
	o.failedTotal.Store(0)
	o.queueFullTotal.Store(0)
	o.runLatency.Reset()
}
