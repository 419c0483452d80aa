package driven

import "context"

// VectorIndex stores embedding vectors keyed by document id and answers
// nearest-neighbour queries over them.
type VectorIndex interface {
	// Add inserts vectors under the given ids. len(ids) must equal
	// len(vectors) and every vector must match Dimensions.
	Add(ctx context.Context, ids []int64, vectors [][]float32) error

	// Search returns the ids of the up to k nearest vectors, best
	// first. Fewer than k results is not an error.
	Search(ctx context.Context, query []float32, k int) ([]int64, error)

	// Remove drops the vectors stored under the given ids. Unknown ids
	// are ignored.
	Remove(ctx context.Context, ids []int64) error

	// IDs lists every id currently indexed.
	IDs(ctx context.Context) ([]int64, error)

	// Dimensions reports the configured vector width.
	Dimensions() int
}
