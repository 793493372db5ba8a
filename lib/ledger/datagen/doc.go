// Package datagen generates the initial state of a ledger that satisfies
// every consistency condition checked by package verify.
//
// Per district the newest 30% of the orders (at least one) are undelivered:
// they have carrier id 0, a new order row and order lines without delivery
// date. Every customer has one history row of 10.00, the district and
// warehouse ytd totals are the sums of these payments.
package datagen
