package pipeline

import (
	"context"
	"testing"
	"time"
)

func TestBatcherGroupsBySize(t *testing.T) {
	b := NewBatcher[int](3, 0)
	out := b.Run(context.Background(), feed(1, 2, 3, 4, 5, 6, 7))

	batches := collect(t, out)
	if len(batches) != 3 {
		t.Fatalf("batches = %v, want 3", batches)
	}
	if len(batches[0]) != 3 || len(batches[1]) != 3 || len(batches[2]) != 1 {
		t.Errorf("batch sizes = %d/%d/%d, want 3/3/1", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	if batches[2][0] != 7 {
		t.Errorf("final partial batch = %v", batches[2])
	}
}

func TestBatcherFlushesPartialOnClose(t *testing.T) {
	b := NewBatcher[int](10, 0)
	out := b.Run(context.Background(), feed(1, 2))

	batches := collect(t, out)
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("batches = %v, want one partial batch", batches)
	}
}

func TestBatcherFlushTimeout(t *testing.T) {
	in := make(chan int)
	b := NewBatcher[int](100, 20*time.Millisecond)
	out := b.Run(context.Background(), in)

	in <- 42

	select {
	case batch := <-out:
		if len(batch) != 1 || batch[0] != 42 {
			t.Fatalf("batch = %v", batch)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed flush never fired")
	}
	close(in)
	collect(t, out)
}

func TestBatcherCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan int)
	out := NewBatcher[int](10, 0).Run(ctx, in)

	in <- 1
	cancel()

	if batches := collect(t, out); len(batches) != 0 {
		t.Errorf("batches = %v after cancel, want none", batches)
	}
}
