package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
)

// DocumentService resolves search hits to stored records.
type DocumentService struct {
	store driven.DocumentStore
}

func NewDocumentService(store driven.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// Retrieve returns the record stored under id. An id the store does
// not hold fails with domain.ErrNotFound.
func (d *DocumentService) Retrieve(ctx context.Context, id int64) (domain.DocumentRecord, error) {
	record, err := d.store.Get(ctx, id)
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("retrieving document %d: %w", id, err)
	}
	return record, nil
}

// RetrieveBatch returns one record per id, in input order. Any absent
// id fails the whole call: a search hit that cannot be resolved is a
// store inconsistency, not a partial result.
func (d *DocumentService) RetrieveBatch(ctx context.Context, ids []int64) ([]domain.DocumentRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := d.store.GetBatch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("retrieving %d documents: %w", len(ids), err)
	}
	return records, nil
}
