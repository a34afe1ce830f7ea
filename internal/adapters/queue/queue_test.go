package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := New[string](WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, "alice.json") {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	item := <-q.Dequeue(ctx)
	if item != "alice.json" {
		t.Errorf("expected alice.json, got %v", item)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := New[int](WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, 1) || !q.Enqueue(ctx, 2) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, 3) {
		t.Error("expected enqueue to fail when queue is full")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := New[int](WithCapacity(4))
	ctx := context.Background()

	q.Enqueue(ctx, 1)
	q.Enqueue(ctx, 2)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, 3) {
		t.Error("expected enqueue to fail after close")
	}
	// Closing twice is fine.
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	// Queued items drain before the channel closes.
	var got []int
	for v := range q.Dequeue(ctx) {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestInMemoryQueue_ContextCancellation(t *testing.T) {
	q := New[int](WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, 1) {
		t.Error("expected enqueue to fail with cancelled context")
	}

	out := q.Dequeue(ctx)
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected no item from a cancelled dequeue")
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue channel was not closed")
	}
}

func TestInMemoryQueue_SharedConsumers(t *testing.T) {
	const n = 100
	q := New[int](WithCapacity(n))
	ctx := context.Background()
	for i := 0; i < n; i++ {
		if !q.Enqueue(ctx, i) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	_ = q.Close()

	out := q.Dequeue(ctx)
	counts := make(chan int, 4)
	for w := 0; w < 4; w++ {
		go func() {
			c := 0
			for range out {
				c++
			}
			counts <- c
		}()
	}
	total := 0
	for w := 0; w < 4; w++ {
		total += <-counts
	}
	if total != n {
		t.Errorf("expected %d items, got %d", n, total)
	}
}
