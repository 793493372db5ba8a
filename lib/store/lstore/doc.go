// Package lstore implements a local, in-memory, single-node ordered key-value
// store based on the store.IStore interface. Data is stored entirely in memory
// and is not persisted between process restarts.
//
// Implementation Details:
//
//   - Point reads: values live in an xsync.MapOf, Get and Has never block on
//     writers.
//
//   - Ordering: the set of keys is kept in a google/btree B-tree which backs
//     the range scans. The tree is guarded by a RWMutex that also serializes
//     all writes, so a scan always sees a consistent snapshot of keys and
//     values.
//
//   - Write Index Management: The store maintains an atomic counter that
//     increments with each write operation and is reported by GetInfo.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. Scan callbacks run while the
//	read lock is held and must not write to the same store.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	_ = s.Set("a/1", []byte("x"))
//	_ = s.Scan("a/", "a0", false, func(key string, value []byte) bool {
//	    fmt.Println(key, string(value))
//	    return true
//	})
package lstore
