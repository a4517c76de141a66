package queue

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// TestBasicOperations tests basic push and receive functionality
func TestBasicOperations(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		if !q.Push(i) {
			t.Fatalf("Failed to push item %d", i)
		}
	}

	for i := 0; i < 10; i++ {
		select {
		case val := <-q.Recv():
			if val != i {
				t.Errorf("Expected %d, got %v", i, val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d", i)
		}
	}

	// Make sure queue is empty
	select {
	case val := <-q.Recv():
		t.Errorf("Queue should be empty, but got %v", val)
	case <-time.After(10 * time.Millisecond):
	}
}

// TestConcurrentProducers verifies every value of every producer arrives exactly once
// and that each producer's values keep their order
func TestConcurrentProducers(t *testing.T) {
	q := NewMPSC[[2]int]()
	defer q.Close()

	const numProducers = 10
	const itemsPerProducer = 1000
	totalItems := numProducers * itemsPerProducer

	done := make(chan struct{})
	lastSeen := make([]int, numProducers)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	receivedCount := 0

	go func() {
		defer close(done)
		for receivedCount < totalItems {
			select {
			case val := <-q.Recv():
				producer, seq := val[0], val[1]
				if seq != lastSeen[producer]+1 {
					t.Errorf("Producer %d: expected item %d, got %d", producer, lastSeen[producer]+1, seq)
					return
				}
				lastSeen[producer] = seq
				receivedCount++
			case <-time.After(2 * time.Second):
				t.Errorf("Timeout waiting for items, received %d of %d", receivedCount, totalItems)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(numProducers)
	for p := 0; p < numProducers; p++ {
		go func(producerID int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				if !q.Push([2]int{producerID, i}) {
					t.Errorf("Producer %d failed to push item %d", producerID, i)
				}
				if i%100 == 0 {
					runtime.Gosched()
				}
			}
		}(p)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Timeout waiting for consumer to finish")
	}

	if receivedCount != totalItems {
		t.Errorf("Expected %d items, got %d", totalItems, receivedCount)
	}
}

// TestCloseQueue verifies closing behavior
func TestCloseQueue(t *testing.T) {
	q := NewMPSC[int]()

	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	q.Close()

	if q.Push(100) {
		t.Error("Should not be able to push after queue is closed")
	}
	if !q.IsClosed() {
		t.Error("IsClosed should report true after Close")
	}

	// Items queued before Close are still delivered
	for i := 0; i < 5; i++ {
		select {
		case val := <-q.Recv():
			if val != i {
				t.Errorf("Expected %d, got %v", i, val)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for item %d after close", i)
		}
	}

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("Channel should be closed but is still open")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel was not closed after draining")
	}
}

// TestCloseIdleQueue verifies that closing an empty queue wakes the waiting consumer
func TestCloseIdleQueue(t *testing.T) {
	q := NewMPSC[string]()

	// give the delivery goroutine time to park
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case _, ok := <-q.Recv():
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Consumer was not woken by Close")
	}
}

// TestLen tests the pending count
func TestLen(t *testing.T) {
	q := NewMPSC[int]()
	defer q.Close()

	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got length %d", q.Len())
	}

	// the delivery goroutine holds at most one value outside the list
	for i := 0; i < 5; i++ {
		q.Push(i)
	}
	if l := q.Len(); l < 4 || l > 5 {
		t.Errorf("Expected length 4 or 5, got %d", l)
	}

	for i := 0; i < 5; i++ {
		<-q.Recv()
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after receiving everything, got length %d", q.Len())
	}
}

// TestSlicesAreNotCopied checks that byte frames arrive unchanged
func TestSlicesAreNotCopied(t *testing.T) {
	q := NewMPSC[[]byte]()
	defer q.Close()

	frame := []byte{0x94, 0x00, 0x01}
	q.Push(frame)

	select {
	case got := <-q.Recv():
		if &got[0] != &frame[0] {
			t.Error("Expected the pushed slice to be delivered as-is")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for frame")
	}
}

// BenchmarkSingleProducer benchmarks the queue with a single producer
func BenchmarkSingleProducer(b *testing.B) {
	q := NewMPSC[int]()
	defer q.Close()

	go func() {
		for range q.Recv() {
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(i)
	}
}

// BenchmarkMultiProducer benchmarks the queue with multiple producers
func BenchmarkMultiProducer(b *testing.B) {
	q := NewMPSC[int]()
	defer q.Close()

	go func() {
		for range q.Recv() {
		}
	}()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			q.Push(i)
			i++
		}
	})
}
