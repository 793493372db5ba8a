package bench

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// resultQueue is an unbounded lock-free multi producer single consumer
// queue. Workers Push results, a single goroutine forwards them in push
// order to the channel returned by Recv. The channel is closed after Close
// once all pushed results were delivered.
type resultQueue struct {
	head   atomic.Pointer[resultNode] // last delivered node (sentinel)
	tail   atomic.Pointer[resultNode]
	out    chan *Result
	closed atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
}

type resultNode struct {
	res  *Result
	next atomic.Pointer[resultNode]
}

func newResultQueue() *resultQueue {
	sentinel := &resultNode{}
	q := &resultQueue{out: make(chan *Result, 64)}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.forward()
	return q
}

// Push appends a result. Returns false if res is nil or the queue is closed.
//
// Thread-safety: safe for concurrent use.
func (q *resultQueue) Push(res *Result) bool {
	if res == nil || q.closed.Load() {
		return false
	}

	n := &resultNode{res: res}
	for spins := 0; ; spins++ {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next != nil {
			// another producer appended but did not move the tail yet
			q.tail.CompareAndSwap(tail, next)
		} else if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.mu.Lock()
			q.cond.Signal()
			q.mu.Unlock()
			return true
		}
		if spins > 8 {
			runtime.Gosched()
		}
	}
}

// forward moves results from the list to the output channel.
func (q *resultQueue) forward() {
	defer close(q.out)

	for {
		head := q.head.Load()
		next := head.next.Load()
		if next != nil {
			q.head.Store(next)
			q.out <- next.res
			next.res = nil
			continue
		}

		if q.closed.Load() {
			// a push may have completed between the load and the close
			if head.next.Load() == nil {
				return
			}
			continue
		}

		q.mu.Lock()
		if head.next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// Recv returns the channel results are delivered to.
func (q *resultQueue) Recv() <-chan *Result {
	return q.out
}

// Close stops accepting results. Results pushed before are still delivered.
func (q *resultQueue) Close() {
	q.closed.Store(true)
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}
