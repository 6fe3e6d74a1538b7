package app

import (
	"context"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
)

// reportObserver sees every iteration report after it is published.
type reportObserver interface {
	ObserveReport(report domain.IterationReport)
}

// observedReporter forwards to the aggregation reporter and then to local observers.
type observedReporter struct {
	port.StateReporter
	observers []reportObserver
}

func (r *observedReporter) ReportOutcome(ctx context.Context, report domain.IterationReport) error {
	err := r.StateReporter.ReportOutcome(ctx, report)
	for _, o := range r.observers {
		o.ObserveReport(report)
	}
	return err
}
