package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

func feed[T any](items ...T) <-chan T {
	ch := make(chan T, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return ch
}

func collect[T any](t *testing.T, ch <-chan T) []T {
	t.Helper()
	var out []T
	timeout := time.After(5 * time.Second)
	for {
		select {
		case item, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, item)
		case <-timeout:
			t.Fatal("timed out draining channel")
		}
	}
}

func TestStageOneToMany(t *testing.T) {
	stage := NewStage("explode", func(_ context.Context, n int) ([]int, error) {
		return []int{n, n * 10}, nil
	})

	out, errs := stage.Run(context.Background(), feed(1, 2, 3))
	results := collect(t, out)
	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sort.Ints(results)
	want := []int{1, 2, 3, 10, 20, 30}
	if len(results) != len(want) {
		t.Fatalf("results = %v, want %v", results, want)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Fatalf("results = %v, want %v", results, want)
		}
	}
}

func TestStageZeroOutputs(t *testing.T) {
	stage := NewStage("drop", func(_ context.Context, n int) ([]int, error) {
		return nil, nil
	})
	out, _ := stage.Run(context.Background(), feed(1, 2, 3))
	if results := collect(t, out); len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

func TestStageSkipErrors(t *testing.T) {
	stage := NewStage("flaky", func(_ context.Context, n int) ([]int, error) {
		if n%2 == 0 {
			return nil, fmt.Errorf("even input %d", n)
		}
		return []int{n}, nil
	}, WithErrorMode(SkipErrors))

	out, errs := stage.Run(context.Background(), feed(1, 2, 3, 4, 5))

	done := make(chan []error)
	go func() {
		var es []error
		for err := range errs {
			es = append(es, err)
		}
		done <- es
	}()

	results := collect(t, out)
	stageErrs := <-done

	if len(results) != 3 {
		t.Errorf("results = %v, want the 3 odd inputs", results)
	}
	if len(stageErrs) != 2 {
		t.Fatalf("errors = %v, want 2", stageErrs)
	}
	for _, err := range stageErrs {
		if errors.Is(err, domain.ErrPipelineAborted) {
			t.Errorf("skip-mode error %v wrapped as abort", err)
		}
		if !strings.Contains(err.Error(), "flaky") {
			t.Errorf("error %v does not name the stage", err)
		}
	}
}

func TestStageAbortOnError(t *testing.T) {
	stage := NewStage("strict", func(_ context.Context, n int) ([]int, error) {
		if n == 3 {
			return nil, errors.New("boom")
		}
		return []int{n}, nil
	}, WithErrorMode(AbortOnError))

	out, errs := stage.Run(context.Background(), feed(1, 2, 3, 4))

	done := make(chan []error)
	go func() {
		var es []error
		for err := range errs {
			es = append(es, err)
		}
		done <- es
	}()

	results := collect(t, out)
	stageErrs := <-done

	if len(stageErrs) != 1 {
		t.Fatalf("errors = %v, want 1", stageErrs)
	}
	if !errors.Is(stageErrs[0], domain.ErrPipelineAborted) {
		t.Errorf("error = %v, want ErrPipelineAborted", stageErrs[0])
	}
	// The single worker stops at the failing item.
	if len(results) != 2 {
		t.Errorf("results = %v, want the 2 items before the failure", results)
	}
}

func TestStageContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan int)
	stage := NewStage("idle", func(_ context.Context, n int) ([]int, error) {
		return []int{n}, nil
	})
	out, errs := stage.Run(ctx, in)

	cancel()
	if results := collect(t, out); len(results) != 0 {
		t.Errorf("results = %v after cancel", results)
	}
	collect(t, errs)
}

func TestStageMultipleWorkers(t *testing.T) {
	stage := NewStage("square", func(_ context.Context, n int) ([]int, error) {
		return []int{n * n}, nil
	}, WithWorkers(4), WithBuffer(8))

	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}
	out, errs := stage.Run(context.Background(), feed(inputs...))
	results := collect(t, out)
	collect(t, errs)

	if len(results) != 100 {
		t.Fatalf("got %d results, want 100", len(results))
	}
	sort.Ints(results)
	for i, r := range results {
		if r != i*i {
			t.Fatalf("results[%d] = %d, want %d", i, r, i*i)
		}
	}
}
