package services

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"cloudsync-pg-backend/internal/domain/ports"
)

// BatchFailure names one failed entry of a batch. Index is -1 when the
// failure belongs to the batch as a whole, e.g. a rejected commit.
type BatchFailure struct {
	Index      int
	ID         int64
	ExternalID string
	Err        error
}

func (f BatchFailure) Error() string {
	if f.Index < 0 {
		return f.Err.Error()
	}
	return fmt.Sprintf("entry %d (id=%d externalId=%q): %v", f.Index, f.ID, f.ExternalID, f.Err)
}

func (f BatchFailure) Unwrap() error {
	return f.Err
}

// BatchError reports a batch that was not applied. Nothing of the batch is
// visible after a BatchError.
type BatchError struct {
	Op       string
	Failures []BatchFailure
}

func (e *BatchError) add(index int, id int64, externalID string, err error) {
	e.Failures = append(e.Failures, BatchFailure{Index: index, ID: id, ExternalID: externalID, Err: err})
}

func (e *BatchError) combined() error {
	var errs error
	for _, f := range e.Failures {
		errs = multierr.Append(errs, f)
	}
	return errs
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, err := range multierr.Errors(e.combined()) {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%s failed: %s", e.Op, strings.Join(parts, "; "))
}

// Unwrap exposes the failures to errors.Is and errors.As
func (e *BatchError) Unwrap() []error {
	return multierr.Errors(e.combined())
}

// FailedIndexes lists the batch positions that failed
func (e *BatchError) FailedIndexes() []int {
	out := make([]int, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Index >= 0 {
			out = append(out, f.Index)
		}
	}
	return out
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ports.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
