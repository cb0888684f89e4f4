// Package spsc provides a bounded single-producer single-consumer ring.
// One goroutine calls the push side, one goroutine calls the pop side;
// no locks are taken on either path.
package spsc

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// Ring is a fixed-capacity circular queue. Capacity is rounded up to a
// power of two so the index wrap is a mask.
type Ring[T any] struct {
	// head/tail on separate cache lines
	head  uint64
	_pad1 [56]byte
	tail  uint64
	_pad2 [56]byte

	buf  []T
	mask uint64
}

// New allocates a ring holding at least capacity elements.
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		capacity = 2
	}
	pow2 := uint64(1)
	for pow2 < uint64(capacity) {
		pow2 <<= 1
	}
	return &Ring[T]{buf: make([]T, pow2), mask: pow2 - 1}
}

// TryPush appends v. Returns false if the ring is full.
// Producer side only.
func (q *Ring[T]) TryPush(v T) bool {
	h := atomic.LoadUint64(&q.head)
	t := atomic.LoadUint64(&q.tail)
	if h-t == uint64(len(q.buf)) {
		return false
	}
	q.buf[h&q.mask] = v
	atomic.StoreUint64(&q.head, h+1)
	return true
}

// Push appends v, yielding the processor until space frees up.
// Producer side only.
func (q *Ring[T]) Push(v T) {
	for !q.TryPush(v) {
		runtime.Gosched()
	}
}

// TryPop removes the oldest element. Returns the zero value and false
// if the ring is empty. Consumer side only.
func (q *Ring[T]) TryPop() (T, bool) {
	t := atomic.LoadUint64(&q.tail)
	h := atomic.LoadUint64(&q.head)
	if t == h {
		var zero T
		return zero, false
	}
	v := q.buf[t&q.mask]
	var zero T
	q.buf[t&q.mask] = zero
	atomic.StoreUint64(&q.tail, t+1)
	return v, true
}

// Len returns the number of elements currently queued.
func (q *Ring[T]) Len() int {
	h := atomic.LoadUint64(&q.head)
	t := atomic.LoadUint64(&q.tail)
	return int(h - t)
}

// Cap returns the total capacity.
func (q *Ring[T]) Cap() int {
	return len(q.buf)
}

// IsEmpty reports whether the ring holds no elements.
func (q *Ring[T]) IsEmpty() bool {
	return atomic.LoadUint64(&q.head) == atomic.LoadUint64(&q.tail)
}

// IsFull reports whether a push would fail.
func (q *Ring[T]) IsFull() bool {
	h := atomic.LoadUint64(&q.head)
	t := atomic.LoadUint64(&q.tail)
	return h-t == uint64(len(q.buf))
}

// String is a short summary for debugging.
func (q *Ring[T]) String() string {
	return fmt.Sprintf("spsc.Ring{len=%d, cap=%d}", q.Len(), q.Cap())
}
