package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/logger"
)

// ErrorMode selects what a stage does when its transform fails for one
// item.
type ErrorMode int

const (
	// SkipErrors logs and reports the failure, drops the item and
	// keeps going.
	SkipErrors ErrorMode = iota

	// AbortOnError reports the failure wrapped in ErrPipelineAborted
	// and stops the failing worker. The orchestrator is expected to
	// cancel the run's context when it sees the abort.
	AbortOnError
)

type stageConfig struct {
	workers int
	buffer  int
	mode    ErrorMode
}

// StageOption adjusts stage construction.
type StageOption func(*stageConfig)

// WithWorkers sets how many goroutines run the transform. Defaults to 1.
func WithWorkers(n int) StageOption {
	return func(c *stageConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBuffer sets the output channel capacity. Defaults to the worker
// count.
func WithBuffer(n int) StageOption {
	return func(c *stageConfig) {
		if n >= 0 {
			c.buffer = n
		}
	}
}

// WithErrorMode selects the stage's failure policy.
func WithErrorMode(m ErrorMode) StageOption {
	return func(c *stageConfig) { c.mode = m }
}

// Stage applies a transform to every item of an input channel, fanning
// the work out over a fixed pool of workers. One input may produce any
// number of outputs. Output order across workers is unspecified; a
// single transform call's outputs are sent contiguously.
type Stage[In, Out any] struct {
	name      string
	transform func(context.Context, In) ([]Out, error)
	cfg       stageConfig
}

// NewStage builds a stage around a transform. The name only appears in
// logs and error messages.
func NewStage[In, Out any](name string, transform func(context.Context, In) ([]Out, error), opts ...StageOption) *Stage[In, Out] {
	cfg := stageConfig{workers: 1, buffer: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.buffer < 0 {
		cfg.buffer = cfg.workers
	}
	return &Stage[In, Out]{name: name, transform: transform, cfg: cfg}
}

// Run starts the workers and returns the output and error channels.
// Both are closed once the input channel is drained and all workers
// have stopped, or once ctx is cancelled. Under SkipErrors the error
// channel carries one entry per failed item; under AbortOnError it
// carries errors wrapped in domain.ErrPipelineAborted.
func (s *Stage[In, Out]) Run(ctx context.Context, in <-chan In) (<-chan Out, <-chan error) {
	out := make(chan Out, s.cfg.buffer)
	errs := make(chan error, s.cfg.workers)

	var wg sync.WaitGroup
	for w := 0; w < s.cfg.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.work(ctx, in, out, errs)
		}()
	}
	go func() {
		wg.Wait()
		close(out)
		close(errs)
	}()
	return out, errs
}

func (s *Stage[In, Out]) work(ctx context.Context, in <-chan In, out chan<- Out, errs chan<- error) {
	for {
		var item In
		select {
		case <-ctx.Done():
			return
		case received, ok := <-in:
			if !ok {
				return
			}
			item = received
		}

		results, err := s.transform(ctx, item)
		if err != nil {
			if s.cfg.mode == AbortOnError {
				s.report(ctx, errs, fmt.Errorf("%s: %v: %w", s.name, err, domain.ErrPipelineAborted))
				return
			}
			logger.Warn("%s: skipping item: %v", s.name, err)
			s.report(ctx, errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}

		for _, r := range results {
			select {
			case <-ctx.Done():
				return
			case out <- r:
			}
		}
	}
}

func (s *Stage[In, Out]) report(ctx context.Context, errs chan<- error, err error) {
	select {
	case <-ctx.Done():
	case errs <- err:
	}
}
