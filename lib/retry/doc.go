// Package retry implements the bounded retry used by the benchmark to
// re-run failed transactions.
//
// A Fixed strategy invokes an operation sequentially until it reports
// success or the attempt budget is used up. Attempts never overlap and there
// is no backoff between them. The strategy does not roll anything back: an
// operation that fails must have cleaned up after itself (for a transaction,
// by ending it) before it returns.
//
//	err := retry.NewFixed(3).Run(ctx, func(ctx context.Context) (bool, error) {
//		return t.Attempt(ctx, client)
//	})
//	switch {
//	case errors.Is(err, retry.ErrAttemptRaised):
//		// the last attempt returned an error, which is the cause of err
//	case errors.Is(err, retry.ErrRetriesExhausted):
//		// all three attempts reported false
//	}
package retry
