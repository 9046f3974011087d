package recommend

import (
	"context"
	"fmt"
	"sort"

	"plateful/domain"
	"plateful/pkg/logger"
)

// IndexHit is one vector-index search result.
type IndexHit struct {
	ItemID uint64
	Score  float64
}

// VectorIndex is the approximate-nearest-neighbor index over taste
// embeddings. Maintained by an external path; the engine only reads it.
type VectorIndex interface {
	Search(ctx context.Context, query []float64, k int) ([]IndexHit, error)
	Build(ctx context.Context, embeddings [][]float64, ids []uint64) error
}

// CatalogRepository is the engine's read view of the item catalog.
type CatalogRepository interface {
	FindAll(ctx context.Context) ([]domain.CandidateItem, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error)
	FindByID(ctx context.Context, id uint64) (domain.CandidateItem, error)
}

// HardFilters are safety and context constraints that always exclude
// items, regardless of which retrieval path served the request.
type HardFilters struct {
	Allergens     []string // user allergens: any overlap excludes
	DietaryTags   []string // required tags: all must be present
	BudgetCeiling float64  // 0 = unconstrained
	Course        string   // "" = any
	TimeOfDay     string   // "" = any
	Exclude       ExclusionSet
}

type Retriever struct {
	index   VectorIndex
	catalog CatalogRepository
	cfg     Config
}

func NewRetriever(index VectorIndex, catalog CatalogRepository, cfg Config) *Retriever {
	return &Retriever{index: index, catalog: catalog, cfg: cfg}
}

// Retrieve returns the candidate pool for a k-item round, ranked by
// similarity to the profile vector. The requested k is inflated before
// the index search so downstream filtering and diversification still
// have enough to choose from. Index failures degrade to a full-catalog
// cosine scan and are never surfaced to the caller.
func (r *Retriever) Retrieve(
	ctx context.Context,
	profileVector map[string]float64,
	k int,
	filters HardFilters,
) ([]domain.CandidateItem, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if k <= 0 {
		k = 10
	}

	fetchK := k * r.cfg.RetrievalInflation
	if fetchK < k {
		fetchK = k
	}

	items, err := r.searchIndex(ctx, profileVector, fetchK)
	if err != nil {
		tid := TraceIDFromContext(ctx)
		logger.Warn("retriever_degraded",
			"trace_id", tid,
			"error", err.Error(),
		)
		RetrieverFallbackTotal.Inc()

		items, err = r.scanCatalog(ctx, profileVector)
		if err != nil {
			return nil, err
		}
	}

	// Hard filters always run, on both retrieval paths.
	filtered := make([]domain.CandidateItem, 0, len(items))
	for _, item := range items {
		if passesHardFilters(item, filters) {
			filtered = append(filtered, item)
		}
	}

	if len(filtered) > fetchK {
		filtered = filtered[:fetchK]
	}
	return filtered, nil
}

func (r *Retriever) searchIndex(
	ctx context.Context,
	profileVector map[string]float64,
	k int,
) ([]domain.CandidateItem, error) {

	if r.index == nil {
		return nil, fmt.Errorf("no vector index configured")
	}

	query := make([]float64, len(r.cfg.Axes))
	for i, axis := range r.cfg.Axes {
		query[i] = profileVector[axis]
	}

	hits, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	ids := make([]uint64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ItemID)
	}

	items, err := r.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve index hits: %w", err)
	}

	// Restore index ranking; FindByIDs gives no order guarantee.
	byID := make(map[uint64]domain.CandidateItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]domain.CandidateItem, 0, len(hits))
	for _, h := range hits {
		if item, ok := byID[h.ItemID]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}

// scanCatalog is the deterministic fallback: cosine similarity over the
// whole catalog, ties broken by item id.
func (r *Retriever) scanCatalog(
	ctx context.Context,
	profileVector map[string]float64,
) ([]domain.CandidateItem, error) {

	items, err := r.catalog.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog for fallback scan: %w", err)
	}

	type ranked struct {
		item domain.CandidateItem
		sim  float64
	}
	rankedItems := make([]ranked, 0, len(items))
	for _, item := range items {
		if len(item.Features) == 0 {
			continue
		}
		rankedItems = append(rankedItems, ranked{
			item: item,
			sim:  cosineOver(r.cfg.Axes, profileVector, item.Features),
		})
	}

	sort.Slice(rankedItems, func(i, j int) bool {
		if rankedItems[i].sim == rankedItems[j].sim {
			return rankedItems[i].item.ID < rankedItems[j].item.ID
		}
		return rankedItems[i].sim > rankedItems[j].sim
	})

	out := make([]domain.CandidateItem, 0, len(rankedItems))
	for _, r := range rankedItems {
		out = append(out, r.item)
	}
	return out, nil
}

func passesHardFilters(item domain.CandidateItem, f HardFilters) bool {
	if f.Exclude.Contains(item.ID) {
		return false
	}

	for _, userAllergen := range f.Allergens {
		for _, itemAllergen := range item.Allergens {
			if userAllergen == itemAllergen {
				return false
			}
		}
	}

	for _, required := range f.DietaryTags {
		found := false
		for _, tag := range item.DietaryTags {
			if tag == required {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.BudgetCeiling > 0 && item.Price > f.BudgetCeiling {
		return false
	}

	if f.Course != "" && item.Course != f.Course {
		return false
	}

	if f.TimeOfDay != "" && len(item.TimeOfDay) > 0 {
		found := false
		for _, t := range item.TimeOfDay {
			if t == f.TimeOfDay {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
