// Package metrics provides observability primitives for the authentication
// core: metric types, Prometheus-compatible export, OpenTelemetry tracing,
// and health checks.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from the controller's remote-callable
// operations.
type Collector struct {
	// Ticket issuance
	ticketGrantingTicketsIssued atomic.Uint64
	clientServerTicketsIssued   atomic.Uint64
	ticketValidationsOK         atomic.Uint64
	ticketValidationsFailed     atomic.Uint64
	ticketLatency               *Histogram

	// Registration / administration
	registrationsTotal   atomic.Uint64
	bootstrapCompletions atomic.Uint64
	adminChangesTotal    atomic.Uint64
	removalsTotal        atomic.Uint64

	// Authorization outcomes
	authFailures       atomic.Uint64
	permissionDenials  atomic.Uint64
	sessionExpirations atomic.Uint64

	// Error metrics
	protocolErrors atomic.Uint64

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		ticketLatency: NewHistogram(TicketLatencyBuckets),
		createdAt:     time.Now(),
		labels:        labels,
	}
}

// TicketLatencyBuckets buckets KDC/TGS/SS operation duration, in
// milliseconds.
var TicketLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

// --- Ticket Issuance ---

// TicketGrantingTicketIssued records a successful KDC response.
func (c *Collector) TicketGrantingTicketIssued() {
	c.ticketGrantingTicketsIssued.Add(1)
}

// ClientServerTicketIssued records a successful TGS response.
func (c *Collector) ClientServerTicketIssued() {
	c.clientServerTicketsIssued.Add(1)
}

// RecordTicketValidation records the outcome of an SS-side ticket/
// authenticator validation.
func (c *Collector) RecordTicketValidation(ok bool) {
	if ok {
		c.ticketValidationsOK.Add(1)
	} else {
		c.ticketValidationsFailed.Add(1)
	}
}

// RecordTicketLatency records how long a ticket-issuing operation took.
func (c *Collector) RecordTicketLatency(d time.Duration) {
	c.ticketLatency.Observe(float64(d.Milliseconds()))
}

// --- Registration / Administration ---

// RegistrationCompleted records a successful register call.
func (c *Collector) RegistrationCompleted() {
	c.registrationsTotal.Add(1)
}

// BootstrapCompleted records the one-time bootstrap register succeeding.
func (c *Collector) BootstrapCompleted() {
	c.bootstrapCompletions.Add(1)
}

// AdminChangeCompleted records a successful set_administrator call.
func (c *Collector) AdminChangeCompleted() {
	c.adminChangesTotal.Add(1)
}

// RemovalCompleted records a successful remove_user call.
func (c *Collector) RemovalCompleted() {
	c.removalsTotal.Add(1)
}

// --- Authorization Outcomes ---

// RecordAuthFailure increments the authentication failure counter (a
// malformed, forged, or otherwise rejected ticket/authenticator).
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordPermissionDenial increments the authorization failure counter (a
// well-formed ticket whose holder lacks the required privilege).
func (c *Collector) RecordPermissionDenial() {
	c.permissionDenials.Add(1)
}

// RecordSessionExpiration increments the clock-skew/expired-ticket counter.
func (c *Collector) RecordSessionExpiration() {
	c.sessionExpirations.Add(1)
}

// --- Error Metrics ---

// RecordProtocolError increments the protocol error counter (a failure
// that is neither an authorization nor an authentication outcome — a
// store or crypto fault).
func (c *Collector) RecordProtocolError() {
	c.protocolErrors.Add(1)
}

// --- Snapshot ---

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	TicketGrantingTicketsIssued uint64
	ClientServerTicketsIssued   uint64
	TicketValidationsOK         uint64
	TicketValidationsFailed     uint64

	RegistrationsTotal   uint64
	BootstrapCompletions uint64
	AdminChangesTotal    uint64
	RemovalsTotal        uint64

	AuthFailures       uint64
	PermissionDenials  uint64
	SessionExpirations uint64

	ProtocolErrors uint64

	TicketLatency HistogramSummary

	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:                   time.Now(),
		Uptime:                      time.Since(c.createdAt),
		TicketGrantingTicketsIssued: c.ticketGrantingTicketsIssued.Load(),
		ClientServerTicketsIssued:   c.clientServerTicketsIssued.Load(),
		TicketValidationsOK:         c.ticketValidationsOK.Load(),
		TicketValidationsFailed:     c.ticketValidationsFailed.Load(),
		RegistrationsTotal:          c.registrationsTotal.Load(),
		BootstrapCompletions:        c.bootstrapCompletions.Load(),
		AdminChangesTotal:           c.adminChangesTotal.Load(),
		RemovalsTotal:               c.removalsTotal.Load(),
		AuthFailures:                c.authFailures.Load(),
		PermissionDenials:           c.permissionDenials.Load(),
		SessionExpirations:          c.sessionExpirations.Load(),
		ProtocolErrors:              c.protocolErrors.Load(),
		TicketLatency:               c.ticketLatency.Summary(),
		Labels:                      c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.ticketGrantingTicketsIssued.Store(0)
	c.clientServerTicketsIssued.Store(0)
	c.ticketValidationsOK.Store(0)
	c.ticketValidationsFailed.Store(0)
	c.registrationsTotal.Store(0)
	c.bootstrapCompletions.Store(0)
	c.adminChangesTotal.Store(0)
	c.removalsTotal.Store(0)
	c.authFailures.Store(0)
	c.permissionDenials.Store(0)
	c.sessionExpirations.Store(0)
	c.protocolErrors.Store(0)
	c.ticketLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector, creating one with default
// settings on first use.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector. Call during initialization,
// before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}
