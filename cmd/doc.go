// Package cmd implements the command-line interface of the TATP benchmark.
//
// The package is organized into several subpackages:
//
//   - run: loads the subscriber data into an in-process store and runs the
//     transaction mix, optionally followed by a ledger verification
//   - gen: prints the generated subscriber rows of an id range
//   - verify: loads a generated ledger and checks its consistency
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables with the prefix TATP_
// (e.g. TATP_WORKERS=8). See tatp -help for a list of all commands.
package cmd
