package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"plateful/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCatalog is an in-memory CatalogRepository for tests.
type memCatalog struct {
	items map[uint64]domain.CandidateItem
}

func newMemCatalog(items ...domain.CandidateItem) *memCatalog {
	m := &memCatalog{items: make(map[uint64]domain.CandidateItem, len(items))}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memCatalog) FindAll(_ context.Context) ([]domain.CandidateItem, error) {
	out := make([]domain.CandidateItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) FindByIDs(_ context.Context, ids []uint64) ([]domain.CandidateItem, error) {
	out := make([]domain.CandidateItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	// deliberately return in id order, not request order
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCatalog) FindByID(_ context.Context, id uint64) (domain.CandidateItem, error) {
	it, ok := m.items[id]
	if !ok {
		return domain.CandidateItem{}, domain.ErrItemNotFound
	}
	return it, nil
}

// stubIndex serves canned hits or a canned error.
type stubIndex struct {
	hits []IndexHit
	err  error
}

func (s *stubIndex) Search(_ context.Context, _ []float64, k int) ([]IndexHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	hits := s.hits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *stubIndex) Build(_ context.Context, _ [][]float64, _ []uint64) error {
	return nil
}

func retrieverCatalog() *memCatalog {
	return newMemCatalog(
		domain.CandidateItem{ID: 1, Price: 10, Features: map[string]float64{"sweet": 1, "salty": 0}},
		domain.CandidateItem{ID: 2, Price: 12, Features: map[string]float64{"sweet": 1, "salty": 1}},
		domain.CandidateItem{ID: 3, Price: 8, Features: map[string]float64{"sweet": 0, "salty": 1}},
	)
}

func retrieverConfig() Config {
	cfg := DefaultConfig()
	cfg.Axes = []string{"sweet", "salty"}
	return cfg
}

func TestRetrieveFallsBackToCatalogScan(t *testing.T) {
	cfg := retrieverConfig()
	query := map[string]float64{"sweet": 1}

	for name, index := range map[string]VectorIndex{
		"nil index":   nil,
		"index error": &stubIndex{err: errors.New("index not built")},
	} {
		r := NewRetriever(index, retrieverCatalog(), cfg)
		items, err := r.Retrieve(context.Background(), query, 3, HardFilters{})
		require.NoError(t, err, name)
		require.Len(t, items, 3, name)

		// cosine order: exact match, diagonal, orthogonal
		assert.Equal(t, uint64(1), items[0].ID, name)
		assert.Equal(t, uint64(2), items[1].ID, name)
		assert.Equal(t, uint64(3), items[2].ID, name)
	}
}

func TestRetrieveFallbackDeterministic(t *testing.T) {
	cfg := retrieverConfig()
	r := NewRetriever(nil, retrieverCatalog(), cfg)
	query := map[string]float64{"sweet": 1}

	first, err := r.Retrieve(context.Background(), query, 3, HardFilters{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Retrieve(context.Background(), query, 3, HardFilters{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieveRestoresIndexRanking(t *testing.T) {
	cfg := retrieverConfig()
	index := &stubIndex{hits: []IndexHit{
		{ItemID: 3, Score: 0.9},
		{ItemID: 1, Score: 0.8},
		{ItemID: 2, Score: 0.7},
	}}

	r := NewRetriever(index, retrieverCatalog(), cfg)
	items, err := r.Retrieve(context.Background(), map[string]float64{"sweet": 1}, 3, HardFilters{})
	require.NoError(t, err)
	require.Len(t, items, 3)

	// FindByIDs returns id order; the retriever must restore hit order
	assert.Equal(t, uint64(3), items[0].ID)
	assert.Equal(t, uint64(1), items[1].ID)
	assert.Equal(t, uint64(2), items[2].ID)
}

func TestRetrieveAppliesHardFilters(t *testing.T) {
	cfg := retrieverConfig()
	catalog := newMemCatalog(
		domain.CandidateItem{ID: 1, Price: 10, Allergens: []string{"peanut"}, Features: map[string]float64{"sweet": 1}},
		domain.CandidateItem{ID: 2, Price: 30, DietaryTags: []string{"vegan"}, Features: map[string]float64{"sweet": 0.9}},
		domain.CandidateItem{ID: 3, Price: 10, DietaryTags: []string{"vegan"}, Features: map[string]float64{"sweet": 0.8}},
		domain.CandidateItem{ID: 4, Price: 10, Features: map[string]float64{"sweet": 0.7}},
	)

	r := NewRetriever(nil, catalog, cfg)
	items, err := r.Retrieve(context.Background(), map[string]float64{"sweet": 1}, 4, HardFilters{
		Allergens:     []string{"peanut"},
		DietaryTags:   []string{"vegan"},
		BudgetCeiling: 20,
	})
	require.NoError(t, err)

	// 1 fails the allergen check, 2 the budget, 4 the dietary tag
	require.Len(t, items, 1)
	assert.Equal(t, uint64(3), items[0].ID)
}

func TestRetrieveExclusionsApplyOnBothPaths(t *testing.T) {
	cfg := retrieverConfig()
	exclude := ExclusionSet{2: ExcludedDisliked}

	indexed := NewRetriever(&stubIndex{hits: []IndexHit{
		{ItemID: 1, Score: 0.9}, {ItemID: 2, Score: 0.8}, {ItemID: 3, Score: 0.7},
	}}, retrieverCatalog(), cfg)
	degraded := NewRetriever(nil, retrieverCatalog(), cfg)

	for name, r := range map[string]*Retriever{"indexed": indexed, "degraded": degraded} {
		items, err := r.Retrieve(context.Background(), map[string]float64{"sweet": 1}, 3, HardFilters{Exclude: exclude})
		require.NoError(t, err, name)
		for _, it := range items {
			assert.NotEqual(t, uint64(2), it.ID, name)
		}
	}
}

func TestRetrieveTimeOfDayFilter(t *testing.T) {
	cfg := retrieverConfig()
	catalog := newMemCatalog(
		domain.CandidateItem{ID: 1, TimeOfDay: []string{"morning"}, Features: map[string]float64{"sweet": 1}},
		domain.CandidateItem{ID: 2, TimeOfDay: []string{"evening"}, Features: map[string]float64{"sweet": 0.9}},
		domain.CandidateItem{ID: 3, Features: map[string]float64{"sweet": 0.8}}, // always served
	)

	r := NewRetriever(nil, catalog, cfg)
	items, err := r.Retrieve(context.Background(), map[string]float64{"sweet": 1}, 3, HardFilters{TimeOfDay: "morning"})
	require.NoError(t, err)

	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.ElementsMatch(t, []uint64{1, 3}, ids)
}

func TestRetrieveSkipsFeaturelessItemsInFallback(t *testing.T) {
	cfg := retrieverConfig()
	catalog := newMemCatalog(
		domain.CandidateItem{ID: 1, Features: map[string]float64{"sweet": 1}},
		domain.CandidateItem{ID: 2}, // no feature vector
	)

	r := NewRetriever(nil, catalog, cfg)
	items, err := r.Retrieve(context.Background(), map[string]float64{"sweet": 1}, 5, HardFilters{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint64(1), items[0].ID)
}

func TestRetrieveCancelledContext(t *testing.T) {
	cfg := retrieverConfig()
	r := NewRetriever(nil, retrieverCatalog(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Retrieve(ctx, map[string]float64{"sweet": 1}, 3, HardFilters{})
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "context")
}
