package retry

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("retry")

var (
	// ErrRetriesExhausted marks the error of Fixed.Run if no attempt succeeded.
	ErrRetriesExhausted = errors.New("attempt failed after retries")
	// ErrAttemptRaised additionally marks it if the last attempt returned an
	// error instead of reporting false. The error of the attempt is the cause.
	ErrAttemptRaised = errors.New("attempt raised an error")
)

// Func is a single attempt. It reports whether the attempt succeeded. An
// error counts as a failed attempt.
type Func func(ctx context.Context) (bool, error)

// Fixed retries an operation up to a fixed number of attempts.
//
// Thread-safety: a Fixed must not be shared by concurrent calls of Run since
// it records the attempts of the last run.
type Fixed struct {
	retries  int
	attempts int
}

// NewFixed creates a strategy with a budget of retries attempts. A budget
// below one is raised to one.
func NewFixed(retries int) *Fixed {
	if retries < 1 {
		retries = 1
	}
	return &Fixed{retries: retries}
}

// Run invokes fn until it returns true or the budget is exhausted.
//
// Returns nil on success. After the last failed attempt the error is marked
// with ErrRetriesExhausted. If the last attempt returned an error, that error
// is the cause and ErrAttemptRaised is marked as well. If ctx is done before
// an attempt starts, the context error is returned unwrapped.
func (f *Fixed) Run(ctx context.Context, fn Func) error {
	f.attempts = 0

	var lastErr error
	for f.attempts < f.retries {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.attempts++

		ok, err := fn(ctx)
		if err == nil && ok {
			if f.attempts > 1 {
				log.Debugf("attempt %d/%d succeeded", f.attempts, f.retries)
			}
			return nil
		}

		lastErr = err
		if err != nil {
			log.Debugf("attempt %d/%d failed: %v", f.attempts, f.retries, err)
		} else {
			log.Debugf("attempt %d/%d failed", f.attempts, f.retries)
		}
	}

	if lastErr != nil {
		err := errors.Wrapf(lastErr, "attempt failed after %d attempts", f.attempts)
		return errors.Mark(errors.Mark(err, ErrRetriesExhausted), ErrAttemptRaised)
	}
	return errors.Wrapf(ErrRetriesExhausted, "%d attempts", f.attempts)
}

// Attempts returns the number of attempts made by the last call of Run.
func (f *Fixed) Attempts() int {
	return f.attempts
}

// Budget returns the configured number of attempts.
func (f *Fixed) Budget() int {
	return f.retries
}
