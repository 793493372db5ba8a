// Package ledger defines a small TPC-C style ledger (warehouses, districts,
// orders, new orders, order lines and history) as skv schemas and typed rows.
//
// The ledger is the input of the consistency verifier (package verify). All
// tables are partitioned by warehouse id, so every per warehouse or per
// district aggregate is a single partition scan. Monetary amounts are
// *apd.Decimal values with two decimal places and are compared exactly.
package ledger
