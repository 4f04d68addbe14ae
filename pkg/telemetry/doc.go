// Package telemetry groups the observability packages of the automation
// engine.
//
//   - logging: slog-based structured logging with PII redaction
//   - metrics: Prometheus collectors for simulations, reloads and run history
//   - tracing: OpenTelemetry spans exported over OTLP
//   - health: liveness, readiness and version endpoints
//
// The watch command mounts metrics and health on one HTTP listener:
//
//	mux := http.NewServeMux()
//	mux.Handle(cfg.Telemetry.Metrics.Path, engineMetrics.Handler())
//	health.Register(mux, checker, versionInfo)
package telemetry
