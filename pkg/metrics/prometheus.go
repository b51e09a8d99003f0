package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "quantum_vpn").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Ticket Issuance ---
	e.writeHelp(w, "ticket_granting_tickets_issued_total", "Total TGTs issued by the KDC")
	e.writeType(w, "ticket_granting_tickets_issued_total", "counter")
	e.writeMetric(w, "ticket_granting_tickets_issued_total", labels, float64(snap.TicketGrantingTicketsIssued))

	e.writeHelp(w, "client_server_tickets_issued_total", "Total CSTs issued by the TGS")
	e.writeType(w, "client_server_tickets_issued_total", "counter")
	e.writeMetric(w, "client_server_tickets_issued_total", labels, float64(snap.ClientServerTicketsIssued))

	e.writeHelp(w, "ticket_validations_ok_total", "Total successful SS-side ticket validations")
	e.writeType(w, "ticket_validations_ok_total", "counter")
	e.writeMetric(w, "ticket_validations_ok_total", labels, float64(snap.TicketValidationsOK))

	e.writeHelp(w, "ticket_validations_failed_total", "Total failed SS-side ticket validations")
	e.writeType(w, "ticket_validations_failed_total", "counter")
	e.writeMetric(w, "ticket_validations_failed_total", labels, float64(snap.TicketValidationsFailed))

	// --- Registration / Administration ---
	e.writeHelp(w, "registrations_total", "Total successful register calls")
	e.writeType(w, "registrations_total", "counter")
	e.writeMetric(w, "registrations_total", labels, float64(snap.RegistrationsTotal))

	e.writeHelp(w, "bootstrap_completions_total", "Total completions of the one-time bootstrap register")
	e.writeType(w, "bootstrap_completions_total", "counter")
	e.writeMetric(w, "bootstrap_completions_total", labels, float64(snap.BootstrapCompletions))

	e.writeHelp(w, "admin_changes_total", "Total successful set_administrator calls")
	e.writeType(w, "admin_changes_total", "counter")
	e.writeMetric(w, "admin_changes_total", labels, float64(snap.AdminChangesTotal))

	e.writeHelp(w, "removals_total", "Total successful remove_user calls")
	e.writeType(w, "removals_total", "counter")
	e.writeMetric(w, "removals_total", labels, float64(snap.RemovalsTotal))

	// --- Authorization Outcomes ---
	e.writeHelp(w, "auth_failures_total", "Total malformed, forged, or otherwise rejected tickets")
	e.writeType(w, "auth_failures_total", "counter")
	e.writeMetric(w, "auth_failures_total", labels, float64(snap.AuthFailures))

	e.writeHelp(w, "permission_denials_total", "Total well-formed tickets rejected for lacking a privilege")
	e.writeType(w, "permission_denials_total", "counter")
	e.writeMetric(w, "permission_denials_total", labels, float64(snap.PermissionDenials))

	e.writeHelp(w, "session_expirations_total", "Total tickets rejected for clock skew or expiry")
	e.writeType(w, "session_expirations_total", "counter")
	e.writeMetric(w, "session_expirations_total", labels, float64(snap.SessionExpirations))

	// --- Error Metrics ---
	e.writeHelp(w, "protocol_errors_total", "Total store or crypto faults")
	e.writeType(w, "protocol_errors_total", "counter")
	e.writeMetric(w, "protocol_errors_total", labels, float64(snap.ProtocolErrors))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "ticket_operation_duration_milliseconds", "KDC/TGS/SS operation duration in milliseconds", labels, snap.TicketLatency)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	// Write bucket counts
	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	// Write sum and count
	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		// Escape label values
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// --- Convenience Functions ---

// ServePrometheus starts an HTTP server serving Prometheus metrics.
// This is a convenience function for simple use cases.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	http.Handle("/metrics", exp.Handler())
	return http.ListenAndServe(addr, nil)
}
