// Package queue provides a lock-free Multi-Producer Single-Consumer (MPSC) queue.
//
// The client transport uses it as the outgoing frame queue: any number of
// goroutines issuing calls push encoded frames without waiting for the network,
// a single writer goroutine drains the queue onto the connection.
//
// Features and Guarantees:
//
//   - Lock-Free Push: atomic operations only, producers never wait for the consumer
//   - Unbounded Size: the queue grows as needed, limited only by available memory
//   - Per-Producer FIFO: values pushed by one goroutine are received in push order.
//     Across producers the order is the order in which the pushes completed.
//   - Single Consumer: values are delivered through the Recv() channel, which is
//     closed after Close() once every value pushed before Close() was delivered.
package queue

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a single element of the linked list
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue.
// Implementation uses a linked list with a sentinel head node.
type MPSC[T any] struct {
	head     atomic.Pointer[node[T]]
	tail     atomic.Pointer[node[T]]
	out      chan T
	consumer sync.WaitGroup
	closed   atomic.Bool
	length   atomic.Int64

	// wakes the consumer when it ran out of work
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSC creates a new queue and starts its delivery goroutine
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &node[T]{}

	q := &MPSC[T]{
		out: make(chan T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.deliver()

	return q
}

// Push appends a value to the queue.
// Returns false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	// counted before it is linked, so Len never under-reports a value the
	// consumer might already be taking
	q.length.Add(1)

	newNode := &node[T]{value: value}
	var backoff uint8

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()

		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already advanced the tail for us
				q.tail.CompareAndSwap(tailNode, newNode)
				q.wake()
				return true
			}
		} else {
			// another producer appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// spin for a few rounds, then yield to let other producers finish
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the consumer. The lock pairs with the check in deliver, so a
// signal can never fall between the consumer's emptiness check and its Wait.
func (q *MPSC[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// deliver moves values from the linked list to the output channel
func (q *MPSC[T]) deliver() {
	defer q.consumer.Done()
	defer close(q.out)

	var zero T
	for {
		head := q.head.Load()
		next := head.next.Load()

		if next != nil {
			value := next.value
			next.value = zero // next becomes the sentinel, do not keep the value alive
			q.head.Store(next)
			q.length.Add(-1)
			q.out <- value
			continue
		}

		q.mu.Lock()
		for q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		drained := q.head.Load().next.Load() == nil
		q.mu.Unlock()

		if drained {
			return
		}
	}
}

// Recv returns the channel the queued values are delivered on
func (q *MPSC[T]) Recv() <-chan T {
	return q.out
}

// Close prevents further pushes. Values already queued are still delivered,
// afterwards the Recv() channel is closed. A Push racing with Close may report
// success without its value being delivered.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// IsClosed returns true if the queue is closed.
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of values pushed (or being pushed) that were not yet
// taken for delivery. A consumer seeing 0 knows no value is on its way.
func (q *MPSC[T]) Len() int {
	return int(q.length.Load())
}
