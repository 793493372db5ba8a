package random

import (
	"math"
	"strings"

	"golang.org/x/exp/rand"
)

// IDDomain is the upper bound of the values returned by UniqueIDs. All
// callers draw access info, special facility and call forwarding types from
// [1, IDDomain].
const IDDomain = 4

// Context is a seeded pseudo random generator.
type Context struct {
	rng *rand.Rand
}

// New creates a Context seeded with the given partition offset.
func New(offset uint64) *Context {
	return &Context{rng: rand.New(rand.NewSource(offset))}
}

// UniformInt returns a uniformly distributed integer in [min, max]. The
// arguments are swapped if min > max.
func (c *Context) UniformInt(min, max int64) int64 {
	if min > max {
		min, max = max, min
	}
	span := uint64(max - min)
	if span == math.MaxUint64 {
		return int64(c.rng.Uint64())
	}
	return min + int64(c.rng.Uint64n(span+1))
}

// Intn is UniformInt for int bounds.
func (c *Context) Intn(min, max int) int {
	return int(c.UniformInt(int64(min), int64(max)))
}

// Int16 returns a value from the full int16 domain.
func (c *Context) Int16() int16 {
	return int16(c.UniformInt(math.MinInt16, math.MaxInt16))
}

// Int32 returns a value from the full int32 domain.
func (c *Context) Int32() int32 {
	return int32(c.UniformInt(math.MinInt32, math.MaxInt32))
}

// Int64 returns a value from the full int64 domain.
func (c *Context) Int64() int64 {
	return int64(c.rng.Uint64())
}

// String returns a string with a length in [minLen, maxLen] whose characters
// are drawn independently from [lo, hi].
func (c *Context) String(minLen, maxLen int, lo, hi byte) string {
	n := c.Intn(minLen, maxLen)
	if n <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(byte(c.UniformInt(int64(lo), int64(hi))))
	}
	return sb.String()
}

// UniqueIDs is UniqueIDsIn over [1, IDDomain].
func (c *Context) UniqueIDs(min, max int) []int {
	return c.UniqueIDsIn(min, max, IDDomain)
}

// UniqueIDsIn draws k = UniformInt(min, max) (or k = min if min >= max) and
// returns k distinct values from [1, domain] in random order. k is clamped
// to [0, domain].
func (c *Context) UniqueIDsIn(min, max, domain int) []int {
	k := min
	if min < max {
		k = c.Intn(min, max)
	}
	if k <= 0 || domain <= 0 {
		return []int{}
	}
	if k > domain {
		k = domain
	}

	// partial Fisher-Yates over the domain
	pool := make([]int, domain)
	for i := range pool {
		pool[i] = i + 1
	}
	for i := 0; i < k; i++ {
		j := c.Intn(i, domain-1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Pick returns one element of values chosen uniformly.
func Pick[T any](c *Context, values []T) T {
	return values[c.Intn(0, len(values)-1)]
}
