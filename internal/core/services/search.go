package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
	"github.com/custodia-labs/wikidex/internal/logger"
)

// SearchService wraps the vector index with embedding and validation.
// Results are ranked best first; fewer than k hits is normal for a
// small index.
type SearchService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

func NewSearchService(embedder driven.EmbeddingService, index driven.VectorIndex) *SearchService {
	return &SearchService{embedder: embedder, index: index}
}

// Search runs one nearest-neighbour query.
func (s *SearchService) Search(ctx context.Context, query []float32, k int) ([]int64, error) {
	if len(query) != s.index.Dimensions() {
		return nil, fmt.Errorf("query width %d, index width %d: %w",
			len(query), s.index.Dimensions(), domain.ErrDimensionMismatch)
	}
	ids, err := s.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	logger.Debug("search: %d/%d hits", len(ids), k)
	return ids, nil
}

// SearchText embeds the query text and searches with the result.
func (s *SearchService) SearchText(ctx context.Context, text string, k int) ([]int64, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%d vectors for 1 query: %w", len(vectors), domain.ErrBatchSizeMismatch)
	}
	return s.Search(ctx, vectors[0], k)
}

// BatchSearch runs one query per vector, preserving input order.
func (s *SearchService) BatchSearch(ctx context.Context, queries [][]float32, k int) ([][]int64, error) {
	results := make([][]int64, len(queries))
	for i, q := range queries {
		ids, err := s.Search(ctx, q, k)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		results[i] = ids
	}
	return results, nil
}
