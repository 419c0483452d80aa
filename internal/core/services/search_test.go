package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/wikidex/internal/adapters/driven/index/flat"
	"github.com/custodia-labs/wikidex/internal/core/domain"
)

func seedIndex(t *testing.T, texts map[int64]string) (*flat.Index, *hashEmbedder) {
	t.Helper()
	embedder := &hashEmbedder{}
	index := flat.New(testDims)
	for id, text := range texts {
		vectors, err := embedder.Embed(context.Background(), []string{text})
		if err != nil {
			t.Fatal(err)
		}
		if err := index.Add(context.Background(), []int64{id}, vectors); err != nil {
			t.Fatal(err)
		}
	}
	return index, embedder
}

func TestSearchFewerResultsThanK(t *testing.T) {
	index, embedder := seedIndex(t, map[int64]string{
		1: "alpha passage",
		2: "beta passage",
		3: "gamma passage",
	})
	svc := NewSearchService(embedder, index)

	ids, err := svc.SearchText(context.Background(), "alpha passage", 5)
	if err != nil {
		t.Fatalf("SearchText() error = %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("got %d ids for k=5 over 3 vectors, want 3", len(ids))
	}
	if ids[0] != 1 {
		t.Errorf("best hit = %d, want the exact match 1", ids[0])
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	index, embedder := seedIndex(t, map[int64]string{1: "text"})
	svc := NewSearchService(embedder, index)

	_, err := svc.Search(context.Background(), []float32{1, 2, 3}, 1)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Search() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearchTextEmbedFailure(t *testing.T) {
	index, _ := seedIndex(t, map[int64]string{1: "text"})
	svc := NewSearchService(&hashEmbedder{failing: true}, index)

	if _, err := svc.SearchText(context.Background(), "query", 1); err == nil {
		t.Fatal("SearchText() error = nil, want embed failure")
	}
}

func TestBatchSearchPreservesOrder(t *testing.T) {
	index, embedder := seedIndex(t, map[int64]string{
		1: "first document body",
		2: "second document body",
	})
	svc := NewSearchService(embedder, index)

	q1, err := embedder.Embed(context.Background(), []string{"first document body"})
	if err != nil {
		t.Fatal(err)
	}
	q2, err := embedder.Embed(context.Background(), []string{"second document body"})
	if err != nil {
		t.Fatal(err)
	}

	results, err := svc.BatchSearch(context.Background(), [][]float32{q1[0], q2[0]}, 1)
	if err != nil {
		t.Fatalf("BatchSearch() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d result sets, want 2", len(results))
	}
	if results[0][0] != 1 || results[1][0] != 2 {
		t.Errorf("results = %v, want [[1] [2]]", results)
	}
}
