package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"orderdesk/automation/pkg/rules"
	"orderdesk/automation/pkg/telemetry/tracing"
)

// BatchItem is the outcome of one fact in a batch.
type BatchItem struct {
	Name   string                     `json:"name"`
	Result *ExecutionSimulationResult `json:"result"`
}

// SimulateBatch validates the rule set once and then simulates every fact
// against it on a pool of at most BatchWorkers goroutines. Items keep the
// order of facts. Cancelling ctx stops scheduling further facts and returns
// the context error.
func (s *Simulator) SimulateBatch(ctx context.Context, set *rules.RuleSet, facts []rules.NamedFact) (items []BatchItem, err error) {
	workers := s.config.BatchWorkers
	if workers < 1 {
		workers = 1
	}

	ctx, span := otel.Tracer(tracing.InstrumentationName).Start(ctx, tracing.SpanSimulateBatch)
	span.SetAttributes(tracing.RuleSetAttributes(set)...)
	span.SetAttributes(tracing.BatchAttributes(len(facts), workers)...)
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	if err := s.Validate(set); err != nil {
		if s.observer != nil {
			s.observer.ObserveValidationFailure()
		}
		return nil, err
	}

	items = make([]BatchItem, len(facts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, nf := range facts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items[i] = BatchItem{Name: nf.Name, Result: s.run(nf.Fact, set)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("batch simulation completed",
		"version", set.Version,
		"facts", len(facts),
		"workers", workers,
	)
	return items, nil
}
