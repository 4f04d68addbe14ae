// Package tracing wires OpenTelemetry tracing for the automation engine.
//
// New installs a global tracer provider that exports spans over OTLP/gRPC.
// Instrumented packages obtain their tracer from otel.Tracer, so they emit
// no-op spans until New has run with tracing enabled.
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "orderdesk.batch")
//	defer span.End()
//	span.SetAttributes(tracing.ResultAttributes(result)...)
//
// Spans emitted by the engine:
//
//	orderdesk.rules.load        one per manager load, with rule set and conflict counts
//	orderdesk.simulate_batch    one per batch, with fact and worker counts
package tracing
