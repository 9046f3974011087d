package recommend

import (
	"math"
	"sort"

	"plateful/domain"
)

// SimilarityLookup serves precomputed item-item similarities. Lookups
// are O(1); a miss means the caller computes cosine on the fly.
type SimilarityLookup interface {
	Similarity(a, b uint64) (float64, bool)
}

// SimilarityMatrix is the in-memory form of the precomputed item-item
// matrix, keyed with the smaller id first.
type SimilarityMatrix map[[2]uint64]float64

func (m SimilarityMatrix) Similarity(a, b uint64) (float64, bool) {
	if a > b {
		a, b = b, a
	}
	v, ok := m[[2]uint64{a, b}]
	return v, ok
}

// DiversityConstraints are hard category caps for one selection run.
// Counters are monotonic: a cap never relaxes mid-run.
type DiversityConstraints struct {
	MaxPerCuisine     int
	MaxPerRestaurant  int
	MaxPerPriceBucket int
	PriceBucketSize   float64
}

// Diversify greedily re-selects up to k items from the ranked
// candidates, balancing relevance against redundancy with the items
// already chosen: each pick after the first maximizes
// (1-lambda)*relevance - lambda*maxSimilarityToSelected. If no eligible
// candidate remains before k, selection terminates early rather than
// violating a cap.
func Diversify(
	scored []domain.ScoredCandidate,
	k int,
	diversityWeight float64,
	constraints DiversityConstraints,
	sim SimilarityLookup,
	axes []string,
) []domain.ScoredCandidate {

	if k <= 0 || len(scored) == 0 {
		return []domain.ScoredCandidate{}
	}

	lambda := diversityWeight
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}

	// Work on a relevance-ordered copy so ties resolve toward the
	// higher-ranked candidate and lambda=0 reproduces plain top-k.
	ranked := make([]domain.ScoredCandidate, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	cuisineCount := make(map[string]int)
	restaurantCount := make(map[string]int)
	bucketCount := make(map[int]int)
	picked := make([]bool, len(ranked))

	selected := make([]domain.ScoredCandidate, 0, k)

	eligible := func(c domain.ScoredCandidate) bool {
		if constraints.MaxPerCuisine > 0 {
			for _, cu := range c.Item.Cuisines {
				if cuisineCount[cu] >= constraints.MaxPerCuisine {
					return false
				}
			}
		}
		if constraints.MaxPerRestaurant > 0 && c.Item.Restaurant != "" {
			if restaurantCount[c.Item.Restaurant] >= constraints.MaxPerRestaurant {
				return false
			}
		}
		if constraints.MaxPerPriceBucket > 0 && constraints.PriceBucketSize > 0 {
			if bucketCount[priceBucket(c.Item.Price, constraints.PriceBucketSize)] >= constraints.MaxPerPriceBucket {
				return false
			}
		}
		return true
	}

	commit := func(idx int) {
		c := ranked[idx]
		picked[idx] = true
		selected = append(selected, c)
		for _, cu := range c.Item.Cuisines {
			cuisineCount[cu]++
		}
		if c.Item.Restaurant != "" {
			restaurantCount[c.Item.Restaurant]++
		}
		if constraints.PriceBucketSize > 0 {
			bucketCount[priceBucket(c.Item.Price, constraints.PriceBucketSize)]++
		}
	}

	for len(selected) < k {
		bestIdx := -1
		bestObjective := math.Inf(-1)

		for i, c := range ranked {
			if picked[i] || !eligible(c) {
				continue
			}

			var objective float64
			if len(selected) == 0 {
				// First pick is the highest-scoring eligible
				// candidate unconditionally.
				objective = c.Score
			} else {
				maxSim := 0.0
				for _, s := range selected {
					if pairSim := pairSimilarity(c.Item, s.Item, sim, axes); pairSim > maxSim {
						maxSim = pairSim
					}
				}
				objective = (1-lambda)*c.Score - lambda*maxSim
			}

			if objective > bestObjective {
				bestObjective = objective
				bestIdx = i
			}
		}

		if bestIdx < 0 {
			// No eligible candidate left: return fewer than k items
			// rather than violate a cap.
			break
		}
		commit(bestIdx)
	}

	return selected
}

func pairSimilarity(a, b domain.CandidateItem, sim SimilarityLookup, axes []string) float64 {
	if sim != nil {
		if v, ok := sim.Similarity(a.ID, b.ID); ok {
			return v
		}
	}
	return cosineOver(axes, a.Features, b.Features)
}

func priceBucket(price, bucketSize float64) int {
	if price < 0 {
		price = 0
	}
	return int(price / bucketSize)
}

// TopK is the deterministic fallback used when the candidate pool is no
// larger than the requested count: plain sort by relevance, ties broken
// by item id.
func TopK(scored []domain.ScoredCandidate, k int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(scored))
	copy(out, scored)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Item.ID < out[j].Item.ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
