// Package bench drives the TATP benchmark against an skv.Client.
//
// A benchmark run has two phases:
//
//   - Load: LoadSubscribers generates the subscriber data in batches of
//     consecutive ids and writes every batch in one transaction. Batches are
//     loaded concurrently (errgroup with a limit) and retried on failure.
//     LoadLedger does the same for the ledger used by the verifier, one
//     transaction per warehouse.
//   - Run: a Runner starts a number of workers. Every worker owns a random
//     context seeded with Seed + worker id, picks transaction types from a
//     weighted Mix and runs each transaction with a fixed retry budget. An
//     optional rate limiter bounds the total throughput.
//
// Workers report a Result per transaction through a lock-free queue to a
// single collector, which updates the Metrics (VictoriaMetrics counters and
// go-metrics latency timers) and keeps the slowest transactions. The
// resulting Report can be printed, exported as CSV and the metrics dumped in
// the Prometheus text format.
package bench
