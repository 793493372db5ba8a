package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUniqueIDs checks count bounds, value range and distinctness for every
// (min, max) combination the generators use and a few more.
func TestUniqueIDs(t *testing.T) {
	rnd := New(42)
	for min := 0; min <= IDDomain; min++ {
		for max := min; max <= IDDomain; max++ {
			for i := 0; i < 200; i++ {
				ids := rnd.UniqueIDs(min, max)
				require.GreaterOrEqual(t, len(ids), min)
				require.LessOrEqual(t, len(ids), max)

				seen := make(map[int]bool)
				for _, id := range ids {
					require.GreaterOrEqual(t, id, 1)
					require.LessOrEqual(t, id, IDDomain)
					require.False(t, seen[id], "duplicate id %d in %v", id, ids)
					seen[id] = true
				}
			}
		}
	}
}

// TestUniqueIDsClamp makes sure requests beyond the domain degenerate
// instead of looping or panicking.
func TestUniqueIDsClamp(t *testing.T) {
	rnd := New(1)
	ids := rnd.UniqueIDs(6, 6)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, ids)
	assert.Empty(t, rnd.UniqueIDs(0, 0))
	assert.Empty(t, rnd.UniqueIDs(-2, -1))
}

func TestUniqueIDsIn(t *testing.T) {
	rnd := New(3)
	seen := make(map[int]int)
	for i := 0; i < 1000; i++ {
		ids := rnd.UniqueIDsIn(0, 3, 3)
		require.LessOrEqual(t, len(ids), 3)
		for _, id := range ids {
			require.GreaterOrEqual(t, id, 1)
			require.LessOrEqual(t, id, 3)
			seen[id]++
		}
	}
	assert.Len(t, seen, 3)

	assert.ElementsMatch(t, []int{1, 2}, rnd.UniqueIDsIn(5, 5, 2))
	assert.Empty(t, rnd.UniqueIDsIn(1, 2, 0))
}

func TestUniformIntBounds(t *testing.T) {
	rnd := New(7)
	hits := make(map[int64]int)
	for i := 0; i < 10000; i++ {
		v := rnd.UniformInt(1, 8)
		require.GreaterOrEqual(t, v, int64(1))
		require.LessOrEqual(t, v, int64(8))
		hits[v]++
	}
	// every value of the domain shows up
	assert.Len(t, hits, 8)

	assert.Equal(t, int64(5), rnd.UniformInt(5, 5))
	v := rnd.UniformInt(10, 3)
	assert.True(t, v >= 3 && v <= 10)
}

func TestFullDomainHelpers(t *testing.T) {
	rnd := New(3)
	var neg16, pos16, neg32, pos32 bool
	for i := 0; i < 1000; i++ {
		a := rnd.Int16()
		b := rnd.Int32()
		neg16 = neg16 || a < 0
		pos16 = pos16 || a > 0
		neg32 = neg32 || b < 0
		pos32 = pos32 || b > 0
	}
	assert.True(t, neg16 && pos16, "int16 values should cover both signs")
	assert.True(t, neg32 && pos32, "int32 values should cover both signs")
}

func TestString(t *testing.T) {
	rnd := New(9)
	for i := 0; i < 100; i++ {
		s := rnd.String(3, 5, 'A', 'Z')
		require.GreaterOrEqual(t, len(s), 3)
		require.LessOrEqual(t, len(s), 5)
		for _, ch := range s {
			require.True(t, ch >= 'A' && ch <= 'Z', "unexpected character %q", ch)
		}
	}
	assert.Len(t, rnd.String(15, 15, '0', '9'), 15)
}

// TestDeterminism checks that the same offset yields the same sequence.
func TestDeterminism(t *testing.T) {
	a, b := New(100), New(100)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.UniformInt(0, 1<<40), b.UniformInt(0, 1<<40))
	}
	assert.Equal(t, a.String(10, 10, 'a', 'z'), b.String(10, 10, 'a', 'z'))

	c := New(101)
	same := true
	for i := 0; i < 10; i++ {
		if a.Int64() != c.Int64() {
			same = false
		}
	}
	assert.False(t, same, "different offsets should give different sequences")
}
