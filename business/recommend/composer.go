package recommend

import (
	"fmt"
	"sort"

	"plateful/domain"
)

// complementaryPairs lists axis pairs that play well across courses.
var complementaryPairs = [][2]string{
	{"sweet", "salty"},
	{"rich", "sour"},
	{"spicy", "sweet"},
	{"umami", "fresh"},
}

// harmony sub-weights.
const (
	harmonyContrastWeight    = 0.30
	harmonyComplementWeight  = 0.20
	harmonyRepetitionPenalty = 0.15
	harmonyProgressionWeight = 0.20
	harmonyIngredientWeight  = 0.15
)

// ComposeMeal enumerates a bounded cross-product of the top candidates
// per course into (appetizer, main, dessert) triples, scores each for
// flavor harmony, discards triples over budget*tolerance, and returns
// the top compositions ranked by a blend of harmony and cooking-method
// variety.
//
// accepted holds already-locked course selections for partial
// regeneration: only the remaining slots are re-searched.
func ComposeMeal(
	candidates []domain.CandidateItem,
	budget float64,
	accepted map[string]domain.CandidateItem,
	cfg Config,
) domain.CompositionResult {

	// Partition by course, preserving candidate rank order.
	byCourse := make(map[string][]domain.CandidateItem)
	for _, item := range candidates {
		if len(item.Features) == 0 {
			continue
		}
		byCourse[item.Course] = append(byCourse[item.Course], item)
	}

	// Per-course pools: accepted items are held fixed; open slots get
	// the top-N candidates for that course.
	pools := make(map[string][]domain.CandidateItem, len(domain.CourseOrder))
	for _, course := range domain.CourseOrder {
		if item, ok := accepted[course]; ok {
			pools[course] = []domain.CandidateItem{item}
			continue
		}
		pool := byCourse[course]
		if len(pool) == 0 {
			return domain.CompositionResult{
				Compositions: []domain.CourseComposition{},
				Reason:       fmt.Sprintf("no %s candidates available", course),
			}
		}
		if len(pool) > cfg.TopPerCourse {
			pool = pool[:cfg.TopPerCourse]
		}
		pools[course] = pool
	}

	maxPrice := 0.0
	if budget > 0 {
		maxPrice = budget * cfg.BudgetTolerance
	}

	type rankedComp struct {
		comp    domain.CourseComposition
		rankkey float64
	}
	var ranked []rankedComp

	for _, app := range pools[domain.CourseAppetizer] {
		for _, main := range pools[domain.CourseMain] {
			for _, dessert := range pools[domain.CourseDessert] {
				total := app.Price + main.Price + dessert.Price
				if maxPrice > 0 && total > maxPrice {
					continue
				}

				triple := []domain.CandidateItem{app, main, dessert}
				harmony := harmonyScore(triple, cfg)
				variety := methodVariety(triple)

				comp := domain.CourseComposition{
					Items: map[string]domain.CandidateItem{
						domain.CourseAppetizer: app,
						domain.CourseMain:      main,
						domain.CourseDessert:   dessert,
					},
					Harmony:         harmony,
					TotalPrice:      total,
					DurationMinutes: cfg.BaseDurationMinutes + cfg.PerCourseMinutes*len(triple),
				}

				ranked = append(ranked, rankedComp{
					comp:    comp,
					rankkey: cfg.HarmonyWeight*harmony + cfg.MethodVarietyWeight*variety,
				})
			}
		}
	}

	if len(ranked) == 0 {
		return domain.CompositionResult{
			Compositions: []domain.CourseComposition{},
			Reason:       "no combination fits the budget",
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].rankkey > ranked[j].rankkey
	})

	out := make([]domain.CourseComposition, 0, cfg.MaxCompositions)
	seen := make(map[[3]uint64]bool)
	for _, rc := range ranked {
		key := [3]uint64{
			rc.comp.Items[domain.CourseAppetizer].ID,
			rc.comp.Items[domain.CourseMain].ID,
			rc.comp.Items[domain.CourseDessert].ID,
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rc.comp)
		if len(out) >= cfg.MaxCompositions {
			break
		}
	}

	return domain.CompositionResult{Compositions: out}
}

// harmonyScore measures how well the courses complement each other:
// pairwise taste contrast, complementary-pairing bonus, a penalty when
// two courses repeat the same dominant axis, an intensity-progression
// term rewarding lighter -> richer -> moderate arcs, and an
// ingredient-diversity term.
func harmonyScore(courses []domain.CandidateItem, cfg Config) float64 {
	contrast := 0.0
	complement := 0.0
	repetition := 0.0
	pairs := 0

	for i := 0; i < len(courses); i++ {
		for j := i + 1; j < len(courses); j++ {
			a, b := courses[i], courses[j]
			pairs++

			contrast += 1 - cosineOver(cfg.Axes, a.Features, b.Features)

			for _, pair := range complementaryPairs {
				if (a.Features[pair[0]] >= cfg.SignificantFeatureCutoff && b.Features[pair[1]] >= cfg.SignificantFeatureCutoff) ||
					(a.Features[pair[1]] >= cfg.SignificantFeatureCutoff && b.Features[pair[0]] >= cfg.SignificantFeatureCutoff) {
					complement += 1
					break
				}
			}

			if da := dominantAxis(cfg.Axes, a.Features); da != "" && da == dominantAxis(cfg.Axes, b.Features) {
				repetition += 1
			}
		}
	}
	if pairs > 0 {
		contrast /= float64(pairs)
		complement /= float64(pairs)
		repetition /= float64(pairs)
	}

	score := harmonyContrastWeight*contrast +
		harmonyComplementWeight*complement -
		harmonyRepetitionPenalty*repetition +
		harmonyProgressionWeight*progressionScore(courses, cfg) +
		harmonyIngredientWeight*ingredientDiversity(courses)

	return clamp01(score)
}

// progressionScore rewards the classic arc: a lighter opener, the
// richest course in the middle, a moderate close.
func progressionScore(courses []domain.CandidateItem, cfg Config) float64 {
	if len(courses) != 3 {
		return 0.5
	}
	opener := meanIntensity(cfg.Axes, courses[0].Features)
	middle := meanIntensity(cfg.Axes, courses[1].Features)
	closer := meanIntensity(cfg.Axes, courses[2].Features)

	score := 0.0
	if middle > opener {
		score += 0.5
	}
	if closer < middle && closer >= opener*0.5 {
		score += 0.5
	}
	return score
}

func ingredientDiversity(courses []domain.CandidateItem) float64 {
	total := 0
	distinct := make(map[string]bool)
	for _, c := range courses {
		for _, ing := range c.Ingredients {
			total++
			distinct[ing] = true
		}
	}
	if total == 0 {
		return 0
	}
	return float64(len(distinct)) / float64(total)
}

func methodVariety(courses []domain.CandidateItem) float64 {
	methods := make(map[string]bool)
	counted := 0
	for _, c := range courses {
		if c.CookingMethod != "" {
			methods[c.CookingMethod] = true
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return float64(len(methods)) / float64(counted)
}
