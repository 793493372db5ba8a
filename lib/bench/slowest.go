package bench

import (
	"container/heap"
	"sort"
)

// slowest keeps the n results with the highest latency. It is a min-heap
// on latency, the root is the fastest of the kept results and gets evicted
// first.
//
// Thread-safety: not safe for concurrent use, only the collector uses it.
type slowest struct {
	n     int
	items []*Result
}

func newSlowest(n int) *slowest {
	return &slowest{n: n, items: make([]*Result, 0, n)}
}

// heap.Interface

func (s *slowest) Len() int           { return len(s.items) }
func (s *slowest) Less(i, j int) bool { return s.items[i].Latency < s.items[j].Latency }
func (s *slowest) Swap(i, j int)      { s.items[i], s.items[j] = s.items[j], s.items[i] }

func (s *slowest) Push(x interface{}) {
	s.items = append(s.items, x.(*Result))
}

func (s *slowest) Pop() interface{} {
	old := s.items
	last := old[len(old)-1]
	old[len(old)-1] = nil
	s.items = old[:len(old)-1]
	return last
}

// Add offers a result.
func (s *slowest) Add(res *Result) {
	if s.n <= 0 {
		return
	}
	if len(s.items) < s.n {
		heap.Push(s, res)
		return
	}
	if res.Latency > s.items[0].Latency {
		s.items[0] = res
		heap.Fix(s, 0)
	}
}

// Sorted returns the kept results, slowest first.
func (s *slowest) Sorted() []*Result {
	out := make([]*Result, len(s.items))
	copy(out, s.items)
	sort.Slice(out, func(i, j int) bool { return out[i].Latency > out[j].Latency })
	return out
}
