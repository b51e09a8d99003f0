package workerpool

import (
	"sync/atomic"
	"time"
)

// Stats collects statistics about pool usage. All fields use atomic
// operations for thread safety.
type Stats struct {
	submittedTotal  atomic.Uint64
	completedTotal  atomic.Uint64
	failedTotal     atomic.Uint64
	queueFullTotal  atomic.Uint64

	totalQueueWaitNanos atomic.Int64
	totalRunNanos       atomic.Int64
	completionCount     atomic.Uint64

	peakQueueWaitNanos atomic.Int64

	createdAt time.Time
}

func newStats() *Stats {
	return &Stats{createdAt: time.Now()}
}

func (s *Stats) recordSubmit() {
	s.submittedTotal.Add(1)
}

func (s *Stats) recordQueueFull() {
	s.queueFullTotal.Add(1)
}

func (s *Stats) recordDequeue(waitDuration time.Duration) {
	waitNanos := waitDuration.Nanoseconds()
	if waitNanos < 0 {
		waitNanos = 0
	}
	s.totalQueueWaitNanos.Add(waitNanos)

	for {
		peak := s.peakQueueWaitNanos.Load()
		if waitNanos <= peak {
			break
		}
		if s.peakQueueWaitNanos.CompareAndSwap(peak, waitNanos) {
			break
		}
	}
}

func (s *Stats) recordCompletion(runDuration time.Duration, succeeded bool) {
	s.completedTotal.Add(1)
	s.completionCount.Add(1)
	runNanos := runDuration.Nanoseconds()
	if runNanos < 0 {
		runNanos = 0
	}
	s.totalRunNanos.Add(runNanos)
	if !succeeded {
		s.failedTotal.Add(1)
	}
}

// StatsSnapshot is an immutable snapshot of pool statistics.
type StatsSnapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	SubmittedTotal uint64
	CompletedTotal uint64
	FailedTotal    uint64
	QueueFullTotal uint64

	AvgQueueWaitMs  float64
	AvgRunMs        float64
	PeakQueueWaitMs float64
}

// Snapshot returns an immutable snapshot of current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	var avgQueueWait, avgRun float64
	if count := s.completionCount.Load(); count > 0 {
		avgQueueWait = float64(s.totalQueueWaitNanos.Load()) / float64(count) / 1e6
		avgRun = float64(s.totalRunNanos.Load()) / float64(count) / 1e6
	}

	return StatsSnapshot{
		Timestamp:       now,
		Uptime:          now.Sub(s.createdAt),
		SubmittedTotal:  s.submittedTotal.Load(),
		CompletedTotal:  s.completedTotal.Load(),
		FailedTotal:     s.failedTotal.Load(),
		QueueFullTotal:  s.queueFullTotal.Load(),
		AvgQueueWaitMs:  avgQueueWait,
		AvgRunMs:        avgRun,
		PeakQueueWaitMs: float64(s.peakQueueWaitNanos.Load()) / 1e6,
	}
}
