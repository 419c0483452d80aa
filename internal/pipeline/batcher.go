package pipeline

import (
	"context"
	"time"
)

// Batcher groups items into slices of up to size, flushing a partial
// batch once it has been open for flushAfter. The timer starts at the
// batch's first item and keeps a trickle of input from stalling the
// stages downstream.
type Batcher[T any] struct {
	size       int
	flushAfter time.Duration
}

// NewBatcher builds a batcher. Non-positive sizes fall back to 1;
// a non-positive flush interval disables timed flushing.
func NewBatcher[T any](size int, flushAfter time.Duration) *Batcher[T] {
	if size < 1 {
		size = 1
	}
	return &Batcher[T]{size: size, flushAfter: flushAfter}
}

// Run starts the batching loop. The output channel closes after the
// input drains or ctx is cancelled; a final partial batch is flushed on
// input close but not on cancellation.
func (b *Batcher[T]) Run(ctx context.Context, in <-chan T) <-chan []T {
	out := make(chan []T, 1)

	go func() {
		defer close(out)

		var (
			batch []T
			timer *time.Timer
			fire  <-chan time.Time
		)
		stopTimer := func() {
			if timer != nil {
				timer.Stop()
				timer = nil
				fire = nil
			}
		}
		flush := func() bool {
			stopTimer()
			if len(batch) == 0 {
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case out <- batch:
				batch = nil
				return true
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case <-fire:
				timer = nil
				fire = nil
				if !flush() {
					return
				}

			case item, ok := <-in:
				if !ok {
					flush()
					return
				}
				batch = append(batch, item)
				if len(batch) >= b.size {
					if !flush() {
						return
					}
					continue
				}
				if b.flushAfter > 0 && timer == nil {
					timer = time.NewTimer(b.flushAfter)
					fire = timer.C
				}
			}
		}
	}()
	return out
}
