package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
	"github.com/custodia-labs/wikidex/internal/logger"
)

// Passage couples a chunk with the provenance its stored record needs.
type Passage struct {
	domain.Chunk
	Title    string
	Modified time.Time
}

// Indexer drains chunk batches at the end of the pipeline: it embeds a
// batch, reserves ids, writes the docstore and then the vector index.
// The docstore is written first so a crash between the two writes can
// only leave a document without a vector, never a search hit without a
// document.
type Indexer struct {
	embedder driven.EmbeddingService
	store    driven.DocumentStore
	index    driven.VectorIndex
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewIndexer builds an indexer. embedsPerSecond throttles embedding
// calls; zero or negative disables throttling.
func NewIndexer(embedder driven.EmbeddingService, store driven.DocumentStore, index driven.VectorIndex, embedsPerSecond float64) *Indexer {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if embedsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(embedsPerSecond), 1)
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		index:    index,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Write persists one batch and returns how many records it wrote.
func (ix *Indexer) Write(ctx context.Context, batch []Passage) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	if err := ix.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.Text
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("%d vectors for %d texts: %w", len(vectors), len(batch), domain.ErrBatchSizeMismatch)
	}

	first, err := ix.store.NextIDs(ctx, len(batch))
	if err != nil {
		return 0, fmt.Errorf("reserving ids: %w", err)
	}

	accessed := ix.now().UTC()
	ids := make([]int64, len(batch))
	records := make([]domain.DocumentRecord, len(batch))
	for i, p := range batch {
		ids[i] = first + int64(i)
		records[i] = domain.DocumentRecord{
			ID:           ids[i],
			Title:        p.Title,
			Text:         p.Text,
			AccessDate:   accessed,
			ModifiedDate: p.Modified,
		}
	}

	if err := ix.store.PutBatch(ctx, records); err != nil {
		return 0, fmt.Errorf("writing documents: %w", err)
	}
	if err := ix.index.Add(ctx, ids, vectors); err != nil {
		return 0, fmt.Errorf("indexing vectors: %w", err)
	}

	logger.Debug("indexer: wrote batch of %d (ids %d..%d)", len(batch), ids[0], ids[len(ids)-1])
	return len(batch), nil
}
