// Package skv defines the client contract of a schema based transactional
// key-value store, which is what the benchmark transactions and data loaders
// are written against.
//
// Key Components:
//
//   - Status: HTTP like status codes. Callers branch on three groups only:
//     success (Is2xxOK), not found (IsNotFound) and everything else.
//
//   - Schema and Catalog: immutable table descriptors (typed fields,
//     partition key and range key field indexes). A Catalog is built once
//     at startup and passed to every component that creates records.
//
//   - Record: positional field values of one schema, nil meaning unset.
//     Records know how to encode their key into an order preserving string,
//     key prefixes encode to string prefixes.
//
//   - Query and Expression: range scans bounded by key prefixes with an
//     optional filter expression tree (EQ, LT, LTE, GT, GTE, AND, OR, NOT)
//     over field references and literals.
//
//   - Client and Txn: begin a transaction with a deadline, then read, write,
//     partially update, query and finally end (commit or abort) it.
//
// Implementations:
//
//	- local: an in-process implementation with strict two phase locking on
//	  top of lib/store, see "github.com/ValentinKolb/tatp/lib/skv/local".
//
// The codec sub package serializes records for storage, skvtest contains a
// conformance suite every Client implementation should pass.
package skv
