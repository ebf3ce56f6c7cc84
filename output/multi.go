package output

import (
	"context"
	"errors"

	"github.com/baseball-sim/run-expectancy/models"
)

// Sink receives the summaries of a finished run.
type Sink interface {
	Write(ctx context.Context, runID string, summaries []models.HitterSummary) error
}

// MultiSink writes to every sink in order. A failing sink does not stop the
// others; all errors are joined.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, runID string, summaries []models.HitterSummary) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, runID, summaries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
