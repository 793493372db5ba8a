// Package verify checks the consistency conditions of a ledger (package
// ledger) after a workload ran against it.
//
// The nine conditions are checked in order, conditions 1 and 8 once per
// warehouse, all others once per district. Every check of one scope reads
// in its own transaction which is aborted afterwards, the verifier never
// writes. The first violated condition stops the run:
//
//	err := verify.New(client).Run(ctx)
//	if errors.Is(err, verify.ErrConsistency) {
//		// err names the condition and the warehouse/district
//	}
//
// Errors not marked with ErrConsistency mean the ledger could not be read.
package verify
