package flat

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/custodia-labs/wikidex/internal/core/domain"
)

func TestSearchRanksBySimilarity(t *testing.T) {
	ix := New(3)
	ctx := context.Background()

	err := ix.Add(ctx,
		[]int64{1, 2, 3},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.9, 0.1, 0},
		})
	if err != nil {
		t.Fatal(err)
	}

	ids, err := ix.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("Search() = %v, want [1 3]", ids)
	}
}

func TestSearchFewerThanK(t *testing.T) {
	ix := New(2)
	ctx := context.Background()
	if err := ix.Add(ctx, []int64{5}, [][]float32{{1, 1}}); err != nil {
		t.Fatal(err)
	}

	ids, err := ix.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 5 {
		t.Errorf("Search() = %v, want [5]", ids)
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	ix := New(4)
	if _, err := ix.Search(context.Background(), []float32{1, 2}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Search() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestAddDimensionMismatch(t *testing.T) {
	ix := New(4)
	err := ix.Add(context.Background(), []int64{1}, [][]float32{{1, 2}})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Add() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestRemoveAndIDs(t *testing.T) {
	ix := New(2)
	ctx := context.Background()
	if err := ix.Add(ctx, []int64{1, 2, 3}, [][]float32{{1, 0}, {0, 1}, {1, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := ix.Remove(ctx, []int64{2, 99}); err != nil {
		t.Fatal(err)
	}

	ids, err := ix.IDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("IDs() = %v, want [1 3]", ids)
	}
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.idx")
	ctx := context.Background()

	ix, err := Open(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(ctx, []int64{7, 8}, [][]float32{{1, 0, 0}, {0, 0, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := ix.Save(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("Len() = %d after reopen, want 2", reopened.Len())
	}
	ids, err := reopened.Search(ctx, []float32{0, 0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != 8 {
		t.Errorf("Search() = %v, want [8]", ids)
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	ix, err := Open(filepath.Join(t.TempDir(), "new.idx"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
}
