// Package datagen generates the TATP data set.
//
// GenerateSubscriberData is pure: it returns the rows of an id range as a
// slice of Op values (table kind + typed row) without touching the store.
// Apply writes such a slice inside a caller supplied transaction. Loaders
// split the id space into disjoint ranges and apply them in parallel, one
// transaction per range.
package datagen
