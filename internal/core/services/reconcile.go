package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
	"github.com/custodia-labs/wikidex/internal/logger"
)

// Reconciler repairs drift between the document store and the vector
// index. The indexer writes documents before vectors, so a crash
// normally leaves documents without vectors; those are re-embedded.
// Vectors without documents cannot be repaired, only removed, and are
// always surfaced to the caller.
type Reconciler struct {
	embedder driven.EmbeddingService
	store    driven.DocumentStore
	index    driven.VectorIndex
	batch    int
}

func NewReconciler(embedder driven.EmbeddingService, store driven.DocumentStore, index driven.VectorIndex, batchSize int) *Reconciler {
	if batchSize < 1 {
		batchSize = 32
	}
	return &Reconciler{embedder: embedder, store: store, index: index, batch: batchSize}
}

// Reconcile sweeps both stores. It returns a *domain.ConsistencyError
// describing what it found whenever the stores disagreed, even after a
// successful repair; a nil error means the stores were already
// consistent.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	storeIDs, err := r.store.IDs(ctx)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	indexIDs, err := r.index.IDs(ctx)
	if err != nil {
		return fmt.Errorf("listing vectors: %w", err)
	}

	inStore := toSet(storeIDs)
	inIndex := toSet(indexIDs)

	var report domain.ConsistencyError
	for _, id := range storeIDs {
		if !inIndex[id] {
			report.MissingVectors = append(report.MissingVectors, id)
		}
	}
	for _, id := range indexIDs {
		if !inStore[id] {
			report.MissingDocuments = append(report.MissingDocuments, id)
		}
	}
	if len(report.MissingVectors) == 0 && len(report.MissingDocuments) == 0 {
		logger.Info("reconcile: stores consistent (%d records)", len(storeIDs))
		return nil
	}

	if err := r.reembed(ctx, report.MissingVectors); err != nil {
		return err
	}
	if len(report.MissingDocuments) > 0 {
		logger.Warn("reconcile: removing %d orphan vectors", len(report.MissingDocuments))
		if err := r.index.Remove(ctx, report.MissingDocuments); err != nil {
			return fmt.Errorf("removing orphan vectors: %w", err)
		}
	}
	return &report
}

// reembed restores vectors for documents the index lost.
func (r *Reconciler) reembed(ctx context.Context, ids []int64) error {
	for start := 0; start < len(ids); start += r.batch {
		end := start + r.batch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		records, err := r.store.GetBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("loading documents to re-embed: %w", err)
		}
		texts := make([]string, len(records))
		for i, rec := range records {
			texts[i] = rec.Text
		}
		vectors, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("re-embedding: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%d vectors for %d documents: %w", len(vectors), len(batch), domain.ErrBatchSizeMismatch)
		}
		if err := r.index.Add(ctx, batch, vectors); err != nil {
			return fmt.Errorf("restoring vectors: %w", err)
		}
		logger.Info("reconcile: restored %d vectors", len(batch))
	}
	return nil
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
