// Package metrics provides observability primitives for the authentication
// core.
//
// # Overview
//
// The metrics package offers:
//   - Metrics collection (counters, histograms) scoped to the controller's
//     remote-callable operations
//   - Prometheus-compatible metrics export
//   - Distributed tracing support (OpenTelemetry-compatible interface)
//   - Health check endpoints
//
// Structured logging lives in a separate package, pkg/logging.
//
// # Quick Start
//
// Basic usage with the global collector:
//
//	import "github.com/pzverkov/kdcauth/pkg/metrics"
//
//	metrics.Global().TicketGrantingTicketIssued()
//	metrics.Global().RecordTicketLatency(15 * time.Millisecond)
//
//	go metrics.ServePrometheus(":9090", metrics.Global(), "kdcauth")
//
// # Metrics Collection
//
// The Collector type aggregates metrics from the controller:
//
//	collector := metrics.NewCollector(metrics.Labels{
//		"instance": "node-1",
//		"region":   "us-west-2",
//	})
//
//	// Ticket issuance
//	collector.TicketGrantingTicketIssued()
//	collector.ClientServerTicketIssued()
//	collector.RecordTicketValidation(true)
//
//	// Registration / administration
//	collector.BootstrapCompleted()
//	collector.RegistrationCompleted()
//	collector.AdminChangeCompleted()
//
//	// Authorization outcomes
//	collector.RecordAuthFailure()
//	collector.RecordPermissionDenial()
//	collector.RecordSessionExpiration()
//
//	snap := collector.Snapshot()
//
// # Prometheus Export
//
// Export metrics in Prometheus format:
//
//	exporter := metrics.NewPrometheusExporter(collector, "kdcauth")
//	http.Handle("/metrics", exporter.Handler())
//
// # Tracing
//
// The package provides a Tracer interface compatible with OpenTelemetry:
//
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	// OpenTelemetry adapter (uses global provider); build with -tags otel
//	// to enable the real adapter, otherwise a stub no-op is linked in.
//	otelTracer := metrics.NewOTelTracer("kdcauth")
//	metrics.SetTracer(otelTracer)
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanRequestSessionKey)
//	defer end(nil) // or end(err) on failure
//
// # Health Checks
//
// Provide health check endpoints for Kubernetes and load balancers:
//
//	health := metrics.NewHealthCheck(collector, "1.0.0")
//	health.AddCheck("store", func() error {
//		return nil
//	})
//
//	http.Handle("/health", health.Handler())
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler())
//
// # Observability Server
//
// Start a complete observability server:
//
//	server := metrics.NewServer(metrics.ServerConfig{
//		Collector:        collector,
//		Version:          "1.0.0",
//		Namespace:        "kdcauth",
//		EnablePrometheus: true,
//		EnableHealth:     true,
//	})
//
//	go server.ListenAndServe(":9090")
//
// This provides:
//   - /metrics - Prometheus metrics
//   - /health  - Detailed health status
//   - /healthz - Kubernetes liveness probe
//   - /readyz  - Kubernetes readiness probe
package metrics
