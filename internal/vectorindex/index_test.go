package vectorindex

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBeforeBuildFails(t *testing.T) {
	ix := New()

	_, err := ix.Search(context.Background(), []float64{1, 0}, 3)
	require.Error(t, err)
	assert.Equal(t, 0, ix.Size())
}

func TestBuildAndSearch(t *testing.T) {
	ix := New()

	err := ix.Build(context.Background(),
		[][]float64{{1, 0}, {0, 1}, {0.7, 0.7}},
		[]uint64{10, 20, 30},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Size())

	hits, err := ix.Search(context.Background(), []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, uint64(10), hits[0].ItemID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, uint64(30), hits[1].ItemID)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-3)
}

func TestBuildValidation(t *testing.T) {
	ix := New()
	ctx := context.Background()

	err := ix.Build(ctx, [][]float64{{1, 0}}, []uint64{1, 2})
	require.Error(t, err, "count mismatch")

	err = ix.Build(ctx, nil, nil)
	require.Error(t, err, "empty build")

	err = ix.Build(ctx, [][]float64{{1, 0}, {1, 0, 0}}, []uint64{1, 2})
	require.Error(t, err, "ragged dimensions")
}

func TestBuildSkipsZeroVectors(t *testing.T) {
	ix := New()

	err := ix.Build(context.Background(),
		[][]float64{{1, 0}, {0, 0}},
		[]uint64{1, 2},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Size())
}

func TestSearchValidation(t *testing.T) {
	ix := New()
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, [][]float64{{1, 0}}, []uint64{1}))

	_, err := ix.Search(ctx, []float64{1, 0, 0}, 1)
	require.Error(t, err, "dimension mismatch")

	_, err = ix.Search(ctx, []float64{0, 0}, 1)
	require.Error(t, err, "zero query")
}

func TestRebuildSwapsAtomically(t *testing.T) {
	ix := New()
	ctx := context.Background()

	require.NoError(t, ix.Build(ctx, [][]float64{{1, 0}}, []uint64{1}))

	// readers hammer the index while rebuilds swap snapshots
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				hits, err := ix.Search(ctx, []float64{1, 0}, 5)
				if err == nil {
					assert.NotEmpty(t, hits)
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		require.NoError(t, ix.Build(ctx, [][]float64{{1, 0}, {0, 1}}, []uint64{1, 2}))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 2, ix.Size())
}
