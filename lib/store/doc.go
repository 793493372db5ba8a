// Package store provides the interface of the ordered key-value storage the
// in-process transactional client is built on.
//
// Key Components:
//
//   - IStore Interface: point operations (Set, SetIfUnset, Get, Has, Delete)
//     and ordered range scans (Scan). SetIfUnset is the atomic primitive the
//     lock manager uses to acquire locks.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes (RetCode) and descriptive messages.
//
// Implementations:
//
//	- Local Store (lstore): an in-memory, single-node implementation that
//	  keeps values in a concurrent hash map and the key order in a B-tree.
//	  Available in the "github.com/ValentinKolb/tatp/lib/store/lstore" package.
package store
