package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driving"
	"github.com/custodia-labs/wikidex/internal/logger"
	"github.com/custodia-labs/wikidex/internal/pipeline"
	"github.com/custodia-labs/wikidex/internal/splitter"
	"github.com/custodia-labs/wikidex/internal/wikitext"
)

// IngestConfig sizes the pipeline.
type IngestConfig struct {
	// Workers is the parallelism of the markup and split stages.
	Workers int

	// BatchSize is how many passages are embedded per call.
	BatchSize int

	// FlushAfter caps how long a partial batch may wait.
	FlushAfter time.Duration
}

func (c IngestConfig) withDefaults() IngestConfig {
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.BatchSize < 1 {
		c.BatchSize = 32
	}
	if c.FlushAfter <= 0 {
		c.FlushAfter = 2 * time.Second
	}
	return c
}

// IngestService runs the dump-to-index pipeline: read pages, process
// markup, split into passages, batch, embed and write. Markup failures
// skip the page; writer failures abort the run.
type IngestService struct {
	reader    *pipeline.DumpReader
	processor *wikitext.Processor
	splitter  *splitter.Splitter
	indexer   *pipeline.Indexer
	cfg       IngestConfig

	mu     sync.Mutex
	status driving.IngestStatus

	pagesRead     atomic.Int64
	pagesSkipped  atomic.Int64
	chunksWritten atomic.Int64
	errCount      atomic.Int64
	ordinal       atomic.Int64
}

var _ driving.Ingestor = (*IngestService)(nil)

func NewIngestService(reader *pipeline.DumpReader, processor *wikitext.Processor, split *splitter.Splitter, indexer *pipeline.Indexer, cfg IngestConfig) *IngestService {
	return &IngestService{
		reader:    reader,
		processor: processor,
		splitter:  split,
		indexer:   indexer,
		cfg:       cfg.withDefaults(),
	}
}

// Ingest streams the dump at path through the pipeline and blocks
// until it drains or aborts.
func (s *IngestService) Ingest(ctx context.Context, path string) (driving.IngestStatus, error) {
	runID := uuid.NewString()
	s.reset(runID)
	logger.Section("Ingest " + runID)
	logger.Info("ingest: reading %s", path)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pages, readErrs := s.reader.Read(ctx, path)

	process := pipeline.NewStage("markup", s.processPage,
		pipeline.WithWorkers(s.cfg.Workers), pipeline.WithErrorMode(pipeline.SkipErrors))
	articles, processErrs := process.Run(ctx, pages)

	split := pipeline.NewStage("split", s.splitArticle,
		pipeline.WithWorkers(s.cfg.Workers), pipeline.WithErrorMode(pipeline.SkipErrors))
	passages, splitErrs := split.Run(ctx, articles)

	batches := pipeline.NewBatcher[pipeline.Passage](s.cfg.BatchSize, s.cfg.FlushAfter).Run(ctx, passages)

	write := pipeline.NewStage("write", s.writeBatch,
		pipeline.WithErrorMode(pipeline.AbortOnError))
	written, writeErrs := write.Run(ctx, batches)

	// Drain the terminal stage; watch every error channel as we go.
	// Reader errors are always terminal, stage errors only when the
	// stage's policy wrapped them as an abort.
	var (
		wg    sync.WaitGroup
		fatal atomic.Pointer[error]
	)
	watch := func(errs <-chan error, terminal bool) {
		defer wg.Done()
		for err := range errs {
			s.errCount.Add(1)
			if terminal || errors.Is(err, domain.ErrPipelineAborted) {
				err := err
				fatal.CompareAndSwap(nil, &err)
				cancel()
			}
		}
	}
	wg.Add(4)
	go watch(readErrs, true)
	go watch(processErrs, false)
	go watch(splitErrs, false)
	go watch(writeErrs, false)
	for range written {
	}
	wg.Wait()

	status := s.snapshot(runID, true)
	if errPtr := fatal.Load(); errPtr != nil {
		logger.Warn("ingest: aborted: %v", *errPtr)
		return status, *errPtr
	}
	logger.Info("ingest: done, %d pages read, %d skipped, %d chunks written",
		status.PagesRead, status.PagesSkipped, status.ChunksWritten)
	return status, nil
}

// Status reports progress of the current or most recent run.
func (s *IngestService) Status() driving.IngestStatus {
	s.mu.Lock()
	runID := s.status.RunID
	done := s.status.Done
	s.mu.Unlock()
	return s.snapshot(runID, done)
}

func (s *IngestService) processPage(_ context.Context, page domain.Page) ([]domain.Article, error) {
	s.pagesRead.Add(1)
	article, err := s.processor.Process(page)
	if err != nil {
		s.pagesSkipped.Add(1)
		return nil, err
	}
	if article.Text == "" {
		s.pagesSkipped.Add(1)
		return nil, nil
	}
	article.Ordinal = int(s.ordinal.Add(1) - 1)
	return []domain.Article{article}, nil
}

func (s *IngestService) splitArticle(_ context.Context, article domain.Article) ([]pipeline.Passage, error) {
	chunks := s.splitter.Split(article)
	passages := make([]pipeline.Passage, len(chunks))
	for i, c := range chunks {
		passages[i] = pipeline.Passage{Chunk: c, Title: article.Title, Modified: article.Modified}
	}
	return passages, nil
}

func (s *IngestService) writeBatch(ctx context.Context, batch []pipeline.Passage) ([]int, error) {
	n, err := s.indexer.Write(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("writing batch: %w", err)
	}
	s.chunksWritten.Add(int64(n))
	return nil, nil
}

func (s *IngestService) reset(runID string) {
	s.pagesRead.Store(0)
	s.pagesSkipped.Store(0)
	s.chunksWritten.Store(0)
	s.errCount.Store(0)
	s.ordinal.Store(0)
	s.mu.Lock()
	s.status = driving.IngestStatus{RunID: runID}
	s.mu.Unlock()
}

func (s *IngestService) snapshot(runID string, done bool) driving.IngestStatus {
	status := driving.IngestStatus{
		RunID:         runID,
		PagesRead:     s.pagesRead.Load(),
		PagesSkipped:  s.pagesSkipped.Load(),
		ChunksWritten: s.chunksWritten.Load(),
		Errors:        s.errCount.Load(),
		Done:          done,
	}
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	return status
}
