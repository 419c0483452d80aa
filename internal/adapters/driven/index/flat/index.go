// Package flat provides a brute-force cosine similarity index keyed by
// document id, with optional file persistence. It trades query speed
// for exactness and zero build dependencies; the engine only sees the
// VectorIndex port, so a faster approximate index can replace it
// without touching the core.
package flat

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/custodia-labs/wikidex/internal/core/domain"
	"github.com/custodia-labs/wikidex/internal/core/ports/driven"
)

// Index is an exact nearest-neighbour index over float32 vectors.
// Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	dims    int
	path    string
	vectors map[int64][]float32
}

var _ driven.VectorIndex = (*Index)(nil)

// New builds an empty in-memory index for vectors of the given width.
func New(dims int) *Index {
	return &Index{dims: dims, vectors: make(map[int64][]float32)}
}

// Open loads the index persisted at path, or starts empty when the
// file does not exist yet. Save writes back to the same path.
func Open(path string, dims int) (*Index, error) {
	idx := New(dims)
	idx.path = path

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	defer f.Close()

	if err := idx.read(f); err != nil {
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	return idx, nil
}

func (ix *Index) Dimensions() int { return ix.dims }

// Add inserts vectors under the given ids.
func (ix *Index) Add(_ context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("%d ids for %d vectors", len(ids), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != ix.dims {
			return fmt.Errorf("vector width %d, index width %d: %w", len(v), ix.dims, domain.ErrDimensionMismatch)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, id := range ids {
		ix.vectors[id] = vectors[i]
	}
	return nil
}

// Search returns the ids of the up to k most similar vectors, best
// first.
func (ix *Index) Search(_ context.Context, query []float32, k int) ([]int64, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("query width %d, index width %d: %w", len(query), ix.dims, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	type scored struct {
		id    int64
		score float32
	}

	ix.mu.RLock()
	hits := make([]scored, 0, len(ix.vectors))
	for id, v := range ix.vectors {
		hits = append(hits, scored{id: id, score: cosine(query, v)})
	}
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})
	if k > len(hits) {
		k = len(hits)
	}
	ids := make([]int64, k)
	for i := 0; i < k; i++ {
		ids[i] = hits[i].id
	}
	return ids, nil
}

// Remove drops the vectors stored under the given ids.
func (ix *Index) Remove(_ context.Context, ids []int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, id := range ids {
		delete(ix.vectors, id)
	}
	return nil
}

// IDs lists every id currently indexed, in ascending order.
func (ix *Index) IDs(_ context.Context) ([]int64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ids := make([]int64, 0, len(ix.vectors))
	for id := range ix.vectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Len reports how many vectors the index holds.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Save persists the index to its backing file. A no-op for purely
// in-memory indexes.
func (ix *Index) Save() error {
	if ix.path == "" {
		return nil
	}

	tmp := ix.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}
	if err := ix.write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing index file: %w", err)
	}
	return os.Rename(tmp, ix.path)
}

// On-disk layout: uint32 dims, uint64 count, then count frames of
// int64 id followed by dims little-endian float32s.

func (ix *Index) write(w io.Writer) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := binary.Write(w, binary.LittleEndian, uint32(ix.dims)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ix.vectors))); err != nil {
		return err
	}
	for id, v := range ix.vectors {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Index) read(r io.Reader) error {
	var dims uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return err
	}
	if int(dims) != ix.dims {
		return fmt.Errorf("file width %d, index width %d: %w", dims, ix.dims, domain.ErrDimensionMismatch)
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		v := make([]float32, ix.dims)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
		ix.vectors[id] = v
	}
	return nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
