package storage

import (
	"context"
	"errors"
)

// MultiSink saves a run to every sink in order. All sinks are attempted;
// their errors are joined.
type MultiSink []Sink

// Save implements Sink.
func (m MultiSink) Save(ctx context.Context, run *Run) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
