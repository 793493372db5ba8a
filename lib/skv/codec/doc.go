// Package codec serializes skv records for storage. It defines a common
// interface and multiple implementations with different performance
// characteristics, selected with the --serializer flag.
//
// Key Components:
//
//   - ICodec: Core interface that all codec implementations must satisfy.
//
//   - binaryCodecImpl: Custom binary format. A presence bitmap marks the set
//     fields, only those are encoded, integers with their schema width.
//     Smallest and fastest, the default.
//
//   - jsonCodecImpl: JSON encoding of the text form of every field, useful
//     for debugging.
//
//   - gobCodecImpl: Go's gob encoding of the same text form.
//
// Every encoded record carries the name and version of its schema, decoding
// a record with a different schema fails.
//
// Thread Safety:
//
//	All codec implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	c, err := codec.New("binary")
//	data, err := c.Encode(rec)
//	// ... store data ...
//	rec, err = c.Decode(schema, data)
package codec
