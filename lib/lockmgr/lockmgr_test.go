package lockmgr

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	s := lstore.NewLocalStore()
	lm := NewLockManager(s, "lock/")
	a, b := NewOwnerID(), NewOwnerID()
	require.NotEqual(t, a, b)

	ok, err := lm.AcquireLock("res", a)
	require.NoError(t, err)
	assert.True(t, ok, "first acquire should succeed")

	ok, err = lm.AcquireLock("res", a)
	require.NoError(t, err)
	assert.True(t, ok, "acquire by the holder should succeed")

	ok, err = lm.AcquireLock("res", b)
	require.NoError(t, err)
	assert.False(t, ok, "acquire by another owner should fail")

	ok, err = lm.ReleaseLock("res", b)
	require.NoError(t, err)
	assert.False(t, ok, "release by another owner should fail")

	ok, err = lm.ReleaseLock("res", a)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lm.AcquireLock("res", b)
	require.NoError(t, err)
	assert.True(t, ok, "lock should be free after release")

	// locks live under the prefix
	has, _ := s.Has("lock/res")
	assert.True(t, has)

	ok, err = lm.ReleaseLock("never-locked", a)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestMutualExclusion lets many owners race for the same lock.
func TestMutualExclusion(t *testing.T) {
	lm := NewLockManager(lstore.NewLocalStore(), "")

	var (
		wg      sync.WaitGroup
		holders atomic.Int32
		winners atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner := NewOwnerID()
			ok, err := lm.AcquireLock("contended", owner)
			if err != nil || !ok {
				return
			}
			winners.Add(1)
			if holders.Add(1) > 1 {
				t.Errorf("more than one holder at once")
			}
			holders.Add(-1)
		}()
	}
	wg.Wait()
	// nobody releases, so exactly one goroutine wins
	assert.Equal(t, int32(1), winners.Load())
}
