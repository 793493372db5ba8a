// Package txn implements the four TATP transaction types driven by the
// benchmark.
//
// A Txn is a closed variant: its Kind selects which of the parameter structs
// is used. New samples the parameters of a kind from a random context.
// Attempt executes the transaction once against an skv.Client and reports
// whether its business logic succeeded, Run does the same but never returns
// an error (failures are logged and reported as false).
//
//	t := txn.New(txn.KindGetAccessData, rnd, subscribers)
//	err := retry.NewFixed(3).Run(ctx, func(ctx context.Context) (bool, error) {
//		return t.Attempt(ctx, client)
//	})
//
// Every attempt starts a fresh skv transaction with a 5 second deadline and
// ends it before returning, committing unless the abort flag is set.
// GetNewDestination and UpdateSubscriberData run their two branches
// concurrently and always wait for both before ending the transaction.
package txn
