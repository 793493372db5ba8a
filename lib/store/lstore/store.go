package lstore

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/tatp/lib/store"
	"github.com/google/btree"
	"github.com/puzpuzpuz/xsync/v3"
)

const btreeDegree = 32

// entry is a stored value together with the index of the write that produced it.
type entry struct {
	value []byte
	index uint64
}

type storeImpl struct {
	// data serves all point reads without taking mu
	data *xsync.MapOf[string, entry]

	// mu guards keys and serializes all writes, so data and keys never
	// disagree for a reader holding mu
	mu   sync.RWMutex
	keys *btree.BTreeG[string]

	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore() store.IStore {
	return &storeImpl{
		data: xsync.NewMapOf[string, entry](),
		keys: btree.NewOrderedG[string](btreeDegree),
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Store(key, entry{value: value, index: s.incAndGetIndex()})
	s.keys.ReplaceOrInsert(key)
	return nil
}

func (s *storeImpl) SetIfUnset(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, loaded := s.data.Load(key); loaded {
		return nil
	}
	s.data.Store(key, entry{value: value, index: s.incAndGetIndex()})
	s.keys.ReplaceOrInsert(key)
	return nil
}

func (s *storeImpl) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, loaded := s.data.LoadAndDelete(key); loaded {
		s.keys.Delete(key)
		s.incAndGetIndex()
	}
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	e, ok := s.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	_, ok := s.data.Load(key)
	return ok, nil
}

func (s *storeImpl) Scan(start, end string, reverse bool, fn store.ScanFunc) error {
	if end != "" && end < start {
		return store.NewError(store.RetCInvalidOperation, "scan end key is smaller than start key")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	visit := func(key string) bool {
		e, ok := s.data.Load(key)
		if !ok {
			return true
		}
		return fn(key, e.value)
	}

	if !reverse {
		if end == "" {
			s.keys.AscendGreaterOrEqual(start, visit)
		} else {
			s.keys.AscendRange(start, end, visit)
		}
		return nil
	}

	// DescendRange is (lessOrEqual, greaterThan], shift the bounds to [start, end)
	descend := func(key string) bool {
		if key < start {
			return false
		}
		if end != "" && key >= end {
			return true
		}
		return visit(key)
	}
	if end == "" {
		s.keys.Descend(descend)
	} else {
		s.keys.DescendLessOrEqual(end, descend)
	}
	return nil
}

func (s *storeImpl) GetInfo() (store.Info, error) {
	return store.Info{
		Keys:       s.data.Size(),
		WriteIndex: s.index.Load(),
	}, nil
}
