package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"plateful/business/recommend"
)

// Index is an in-memory cosine-similarity index over taste embeddings.
// Rebuilds publish a fresh snapshot through an atomic pointer swap, so
// concurrent readers never observe a partially-written structure.
type Index struct {
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	dim  int
	ids  []uint64
	vecs [][]float64 // unit-normalized
}

func New() *Index {
	return &Index{}
}

var _ recommend.VectorIndex = (*Index)(nil)

// Build validates and normalizes the embeddings, then swaps them in
// atomically. The previous snapshot keeps serving until the swap.
func (ix *Index) Build(ctx context.Context, embeddings [][]float64, ids []uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(embeddings) != len(ids) {
		return fmt.Errorf("embedding/id count mismatch: %d vs %d", len(embeddings), len(ids))
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("cannot build an empty index")
	}

	dim := len(embeddings[0])
	snap := &snapshot{
		dim:  dim,
		ids:  make([]uint64, 0, len(ids)),
		vecs: make([][]float64, 0, len(embeddings)),
	}

	for i, emb := range embeddings {
		if len(emb) != dim {
			return fmt.Errorf("embedding %d has dimension %d, want %d", i, len(emb), dim)
		}
		norm := 0.0
		for _, v := range emb {
			norm += v * v
		}
		if norm == 0 {
			// zero vector carries no signal; skip it
			continue
		}
		norm = math.Sqrt(norm)
		unit := make([]float64, dim)
		for j, v := range emb {
			unit[j] = v / norm
		}
		snap.ids = append(snap.ids, ids[i])
		snap.vecs = append(snap.vecs, unit)
	}

	ix.snap.Store(snap)
	return nil
}

// Search returns the k nearest items by cosine similarity. An unbuilt
// index returns an error; callers treat that as degraded mode and fall
// back to a catalog scan.
func (ix *Index) Search(ctx context.Context, query []float64, k int) ([]recommend.IndexHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	snap := ix.snap.Load()
	if snap == nil {
		return nil, fmt.Errorf("index not built")
	}
	if len(query) != snap.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), snap.dim)
	}
	if k <= 0 {
		k = 10
	}

	qnorm := 0.0
	for _, v := range query {
		qnorm += v * v
	}
	if qnorm == 0 {
		return nil, fmt.Errorf("zero query vector")
	}
	qnorm = math.Sqrt(qnorm)

	hits := make([]recommend.IndexHit, 0, len(snap.ids))
	for i, vec := range snap.vecs {
		dot := 0.0
		for j, v := range vec {
			dot += v * query[j]
		}
		hits = append(hits, recommend.IndexHit{
			ItemID: snap.ids[i],
			Score:  dot / qnorm,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ItemID < hits[j].ItemID
		}
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Size reports how many vectors the current snapshot holds.
func (ix *Index) Size() int {
	snap := ix.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.ids)
}
