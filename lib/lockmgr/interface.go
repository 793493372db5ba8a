package lockmgr

// ILockManager defines the interface for an exclusive lock provider.
type ILockManager interface {
	// AcquireLock acquires the lock for the given key on behalf of ownerID.
	// Returns true if the lock is now held by ownerID, also when it already was.
	// Returns false if another owner holds the lock. The call never waits.
	AcquireLock(key string, ownerID []byte) (ok bool, err error)

	// ReleaseLock releases the lock for the given key.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return True if the lock did not exist.
	ReleaseLock(key string, ownerID []byte) (ok bool, err error)
}
