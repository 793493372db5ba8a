package lockmgr

import (
	"bytes"

	"github.com/ValentinKolb/tatp/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type lockMgrImpl struct {
	store  store.IStore
	prefix string
}

// NewLockManager creates a lock manager that keeps its locks in the given
// store under keys starting with prefix.
func NewLockManager(store store.IStore, prefix string) ILockManager {
	return &lockMgrImpl{
		store:  store,
		prefix: prefix,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, ownerID []byte) (bool, error) {
	key = lm.prefix + key

	// Try to acquire the lock (by setting the value only if it doesn't exist - atomic CAS operation)
	if err := lm.store.SetIfUnset(key, ownerID); err != nil {
		log.Errorf("setting lock %q failed: %v", key, err)
		return false, err
	}

	// Check if the lock was acquired
	value, found, err := lm.store.Get(key)
	if err != nil {
		return false, err
	}

	// Return true if the lock is held BY US (new or re-entrant)
	return found && bytes.Equal(value, ownerID), nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	key = lm.prefix + key

	// Check if the lock exists
	value, ok, err := lm.store.Get(key)
	if err != nil || !ok {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, value) {
		return false, nil
	}

	// Release the lock
	err = lm.store.Delete(key)
	return err == nil, err
}
