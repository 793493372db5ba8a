// Package lockmgr implements exclusive locks on top of any store.IStore.
// The in-process transactional client uses it to hold its partition locks.
//
// The lockmgr only ever stores in the provided IStore and has no other internal
// state. Therefor it is safe to be created multiple times on the same store.
//
// Implementation Approach:
//
//	- Lock Acquisition: Attempts to create the lock key using SetIfUnset,
//	  which guarantees that only one requester can successfully create the
//	  key. The value is the owner ID supplied by the caller (a transaction id).
//
//	- Lock Verification: SetIfUnset is followed by a Get that compares the
//	  stored value with the owner ID. Acquiring a lock that is already held by
//	  the same owner succeeds.
//
//	- Safe Release: ReleaseLock first verifies that the requester owns the
//	  lock by comparing owner IDs before executing the Delete operation.
//
// Acquisition never waits. Callers that need to wait retry on their own,
// the transactional client instead aborts (no-wait two-phase locking).
//
// Usage Example:
//
//	lm := lockmgr.NewLockManager(s, "lock/")
//	owner := lockmgr.NewOwnerID()
//	if ok, err := lm.AcquireLock("subscriber/42", owner); err == nil && ok {
//	    defer lm.ReleaseLock("subscriber/42", owner)
//	    // ...
//	}
package lockmgr
