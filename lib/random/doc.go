// Package random provides the deterministic random context used by the data
// generators and for transaction parameter sampling.
//
// A Context is seeded with a partition offset (for example the first
// subscriber id of a load batch or a worker number). Two contexts created
// with the same offset produce the same sequence, contexts created with
// different offsets are independent. A Context is not safe for concurrent
// use, every generator partition and every worker owns its own instance.
package random
