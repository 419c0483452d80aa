package driven

import (
	"context"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

// DocumentStore persists document records. Record ids are allocated by
// NextIDs and double as vector ids in the index; the allocation is
// durable so ids are never reissued across restarts.
type DocumentStore interface {
	// NextIDs reserves n consecutive ids and returns the first. The
	// reservation survives a crash.
	NextIDs(ctx context.Context, n int) (int64, error)

	// PutBatch inserts the given records. Ids must have been reserved
	// with NextIDs.
	PutBatch(ctx context.Context, records []domain.DocumentRecord) error

	// Get returns the record stored under id, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (domain.DocumentRecord, error)

	// GetBatch returns one record per id, in input order. Any absent id
	// fails the whole call with domain.ErrNotFound.
	GetBatch(ctx context.Context, ids []int64) ([]domain.DocumentRecord, error)

	// IDs lists every stored record id.
	IDs(ctx context.Context) ([]int64, error)

	// Delete removes the records stored under the given ids.
	Delete(ctx context.Context, ids []int64) error

	// Close releases the underlying storage.
	Close() error
}
