package recommend

import (
	"context"
	"sort"
	"time"

	"plateful/domain"
	"plateful/pkg/logger"
)

// ScoringContext is the per-round context a candidate is scored in.
type ScoringContext struct {
	MealIntent string
	TimeOfDay  string
	Budget     float64
	Mood       string
	Occasion   string

	// Iteration is the session round number; it scales the fatigue
	// penalty for previously shown items.
	Iteration int

	// ShownCounts maps item id to how many prior rounds showed it.
	ShownCounts map[uint64]int

	// RepeatPenalties holds decayed repeat-order penalties per item.
	RepeatPenalties map[uint64]float64

	// IngredientAffinities holds learned per-ingredient weights:
	// positive for liked ingredients, negative for penalized ones.
	IngredientAffinities map[string]float64
}

type Scorer struct {
	cfg     Config
	learned *guardedScorer // nil when no learned scorer is deployed
}

// NewScorer builds the scorer. learned may be nil; when present its
// calls are bounded by learnedTimeout and guarded by a circuit breaker.
func NewScorer(cfg Config, learned LearnedScorer, learnedTimeout time.Duration) *Scorer {
	return &Scorer{cfg: cfg, learned: newGuardedScorer(learned, learnedTimeout)}
}

// ScoreAndRank scores every candidate against the query vector and
// context and returns them ordered by aggregate score. Items with a
// missing feature vector are skipped (logged once per batch). If a
// learned scorer is configured it replaces the rule-based aggregate for
// the whole batch; on any failure the rule-based path serves the whole
// batch instead, with no change to the external contract.
func (sc *Scorer) ScoreAndRank(
	ctx context.Context,
	candidates []domain.CandidateItem,
	profile *domain.TasteProfile,
	queryVector map[string]float64,
	sctx ScoringContext,
) []domain.ScoredCandidate {

	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	loggedMalformed := false

	for _, item := range candidates {
		if len(item.Features) == 0 {
			if !loggedMalformed {
				logger.Warn("scorer_skipping_malformed_items",
					"trace_id", TraceIDFromContext(ctx),
					"first_item_id", item.ID,
				)
				loggedMalformed = true
			}
			continue
		}
		scored = append(scored, sc.scoreOne(item, profile, queryVector, sctx))
	}

	if sc.learned != nil && len(scored) > 0 {
		if err := sc.applyLearned(ctx, scored); err != nil {
			LearnedScorerFallbackTotal.Inc()
			logger.Warn("learned_scorer_fallback",
				"trace_id", TraceIDFromContext(ctx),
				"error", err.Error(),
			)
			// rule-based aggregates already in place; nothing to redo
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score == scored[j].Score {
			return scored[i].Item.ID < scored[j].Item.ID
		}
		return scored[i].Score > scored[j].Score
	})

	return scored
}

func (sc *Scorer) scoreOne(
	item domain.CandidateItem,
	profile *domain.TasteProfile,
	queryVector map[string]float64,
	sctx ScoringContext,
) domain.ScoredCandidate {

	cfg := sc.cfg
	components := make(map[string]float64)

	taste := cosineOver(cfg.Axes, queryVector, item.Features)
	components["taste_similarity"] = taste

	cuisine := sc.cuisineAffinity(item, profile)
	components["cuisine_affinity"] = cuisine

	components["popularity"] = item.Popularity

	ingredient := sc.ingredientBonus(item, sctx)
	components["ingredient_bonus"] = ingredient

	provenance := 0.0
	if item.Provenance == domain.ProvenanceInferred {
		provenance = cfg.ProvenancePenaltyWeight * (1 - item.ProvenanceConfidence)
	}
	components["provenance_penalty"] = provenance

	exploration := sc.explorationBonus(item, profile)
	components["exploration_bonus"] = exploration

	base := taste +
		cfg.LambdaCuisine*cuisine +
		cfg.LambdaPopularity*item.Popularity +
		ingredient -
		provenance +
		exploration

	adjustments := sc.contextAdjustments(item, sctx)
	for _, v := range adjustments {
		base += v
	}

	conf, why := sc.confidence(item, profile, adjustments)

	return domain.ScoredCandidate{
		Item:          item,
		Components:    components,
		Adjustments:   adjustments,
		Score:         clamp01(base),
		Confidence:    conf,
		Justification: why,
	}
}

// cuisineAffinity is the mean posterior preference over the item's
// cuisine tags, 0.5-neutral for unknown cuisines.
func (sc *Scorer) cuisineAffinity(item domain.CandidateItem, profile *domain.TasteProfile) float64 {
	if len(item.Cuisines) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, c := range item.Cuisines {
		if bp, ok := profile.Cuisines[c]; ok {
			sum += bp.Mean()
		} else {
			sum += 0.5
		}
	}
	return sum / float64(len(item.Cuisines))
}

// explorationBonus rewards items touching axes the model is least
// certain about.
func (sc *Scorer) explorationBonus(item domain.CandidateItem, profile *domain.TasteProfile) float64 {
	if len(sc.cfg.Axes) == 0 {
		return 0
	}
	sum := 0.0
	for _, axis := range sc.cfg.Axes {
		bp, ok := profile.Axes[axis]
		if !ok {
			bp = domain.NewBetaParams(sc.cfg.PriorAlpha, sc.cfg.PriorBeta)
		}
		feature := item.Features[axis]
		if feature < 0 {
			feature = -feature
		}
		sum += bp.Uncertainty() * feature
	}
	return sc.cfg.ExplorationCoefficient * (sum / float64(len(sc.cfg.Axes)))
}

func (sc *Scorer) ingredientBonus(item domain.CandidateItem, sctx ScoringContext) float64 {
	if len(sctx.IngredientAffinities) == 0 {
		return 0
	}
	sum := 0.0
	for _, ing := range item.Ingredients {
		sum += sctx.IngredientAffinities[ing]
	}
	return clampAbs(sc.cfg.IngredientBonusWeight*sum, sc.cfg.AdjustmentBound)
}

// contextAdjustments produces additive, independently bounded
// corrections, each retained as a named factor for explainability.
func (sc *Scorer) contextAdjustments(item domain.CandidateItem, sctx ScoringContext) map[string]float64 {
	cfg := sc.cfg
	out := make(map[string]float64)

	if course := courseForIntent(sctx.MealIntent); course != "" {
		if item.Course == course {
			out["course_match"] = clampAbs(0.15, cfg.AdjustmentBound)
		} else {
			out["course_match"] = clampAbs(-0.1, cfg.AdjustmentBound)
		}
	}

	if sctx.TimeOfDay != "" && len(item.TimeOfDay) > 0 {
		fit := -0.2
		for _, t := range item.TimeOfDay {
			if t == sctx.TimeOfDay {
				fit = 0.1
				break
			}
		}
		out["time_of_day"] = clampAbs(fit, cfg.AdjustmentBound)
	}

	if sctx.Budget > 0 {
		headroom := (sctx.Budget - item.Price) / sctx.Budget
		out["budget_fit"] = clampAbs(0.2*headroom, cfg.AdjustmentBound)
	}

	if adj := moodAdjustment(sctx.Mood, item); adj != 0 {
		out["mood"] = clampAbs(adj, cfg.AdjustmentBound)
	}

	if adj := occasionAdjustment(sctx.Occasion, item); adj != 0 {
		out["occasion"] = clampAbs(adj, cfg.AdjustmentBound)
	}

	if p, ok := sctx.RepeatPenalties[item.ID]; ok && p > 0 {
		out["repeat_order"] = clampAbs(-p, cfg.AdjustmentBound)
	}

	if n := sctx.ShownCounts[item.ID]; n > 0 {
		fatigue := cfg.FatiguePenalty * float64(n) * (1 + float64(sctx.Iteration)/10)
		out["fatigue"] = clampAbs(-fatigue, cfg.AdjustmentBound)
	}

	return out
}

func courseForIntent(intent string) string {
	switch intent {
	case "breakfast", "lunch", "dinner":
		return domain.CourseMain
	case "snack":
		return domain.CourseAppetizer
	case "dessert":
		return domain.CourseDessert
	default:
		return ""
	}
}

func moodAdjustment(mood string, item domain.CandidateItem) float64 {
	switch mood {
	case "comfort":
		return 0.2 * item.Features["rich"]
	case "light", "healthy":
		return 0.2*item.Features["fresh"] - 0.15*item.Features["rich"]
	case "adventurous":
		return 0.2 * item.Features["spicy"]
	default:
		return 0
	}
}

func occasionAdjustment(occasion string, item domain.CandidateItem) float64 {
	switch occasion {
	case "celebration", "date":
		// lean into indulgence
		return 0.1*item.Features["rich"] + 0.1*item.Features["sweet"]
	case "workday":
		return 0.1 * item.Features["fresh"]
	default:
		return 0
	}
}
