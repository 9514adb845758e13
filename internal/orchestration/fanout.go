package orchestration

import (
	"context"
	"errors"

	"github.com/fundedlabs/propcore/internal/domain"
)

// Fanout delivers each drained batch to every sink. All sinks see the
// batch even when an earlier one fails; errors are joined so the
// caller can log the full picture.
type Fanout struct {
	sinks []Publisher
}

func NewFanout(sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Publish(ctx context.Context, events []domain.Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
