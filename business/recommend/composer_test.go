package recommend

import (
	"testing"

	"plateful/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseItem(id uint64, course string, price float64, method string, features map[string]float64) domain.CandidateItem {
	return domain.CandidateItem{
		ID:            id,
		Course:        course,
		Price:         price,
		CookingMethod: method,
		Features:      features,
	}
}

func composerPool() []domain.CandidateItem {
	return []domain.CandidateItem{
		courseItem(1, domain.CourseAppetizer, 8, "raw", map[string]float64{"fresh": 0.8, "sour": 0.3}),
		courseItem(2, domain.CourseAppetizer, 12, "fried", map[string]float64{"salty": 0.7, "rich": 0.4}),
		courseItem(3, domain.CourseMain, 18, "grilled", map[string]float64{"rich": 0.9, "umami": 0.7}),
		courseItem(4, domain.CourseMain, 25, "braised", map[string]float64{"rich": 0.8, "salty": 0.5}),
		courseItem(5, domain.CourseDessert, 8, "baked", map[string]float64{"sweet": 0.9}),
		courseItem(6, domain.CourseDessert, 15, "frozen", map[string]float64{"sweet": 0.7, "rich": 0.5}),
	}
}

func TestComposeMealRespectsBudgetTolerance(t *testing.T) {
	cfg := DefaultConfig() // tolerance 1.15

	result := ComposeMeal(composerPool(), 30, nil, cfg)
	require.NotEmpty(t, result.Compositions)
	assert.Empty(t, result.Reason)

	// budget 30 stretches to 34.50; only app 8 + main 18 + dessert 8 fits
	require.Len(t, result.Compositions, 1)
	comp := result.Compositions[0]
	assert.InDelta(t, 34.0, comp.TotalPrice, 1e-9)
	assert.LessOrEqual(t, comp.TotalPrice, 30*cfg.BudgetTolerance)

	assert.Equal(t, uint64(1), comp.Items[domain.CourseAppetizer].ID)
	assert.Equal(t, uint64(3), comp.Items[domain.CourseMain].ID)
	assert.Equal(t, uint64(5), comp.Items[domain.CourseDessert].ID)

	assert.Equal(t, cfg.BaseDurationMinutes+3*cfg.PerCourseMinutes, comp.DurationMinutes)
	assert.GreaterOrEqual(t, comp.Harmony, 0.0)
	assert.LessOrEqual(t, comp.Harmony, 1.0)
}

func TestComposeMealUnconstrainedBudget(t *testing.T) {
	cfg := DefaultConfig()

	result := ComposeMeal(composerPool(), 0, nil, cfg)
	require.NotEmpty(t, result.Compositions)
	// 2 apps x 2 mains x 2 desserts, capped by MaxCompositions
	assert.LessOrEqual(t, len(result.Compositions), cfg.MaxCompositions)
	assert.Len(t, result.Compositions, 5)

	// ranked best-first
	prev := 2.0
	for _, comp := range result.Compositions {
		key := cfg.HarmonyWeight * comp.Harmony
		assert.LessOrEqual(t, key, prev+1) // sanity: scores finite
		prev = key
	}
}

func TestComposeMealImpossibleBudget(t *testing.T) {
	cfg := DefaultConfig()

	result := ComposeMeal(composerPool(), 10, nil, cfg)
	assert.Empty(t, result.Compositions)
	assert.Equal(t, "no combination fits the budget", result.Reason)
}

func TestComposeMealMissingCourse(t *testing.T) {
	cfg := DefaultConfig()

	pool := []domain.CandidateItem{
		courseItem(1, domain.CourseAppetizer, 8, "raw", map[string]float64{"fresh": 0.8}),
		courseItem(3, domain.CourseMain, 18, "grilled", map[string]float64{"rich": 0.9}),
	}

	result := ComposeMeal(pool, 100, nil, cfg)
	assert.Empty(t, result.Compositions)
	assert.Equal(t, "no dessert candidates available", result.Reason)
}

func TestComposeMealHoldsAcceptedSlotsFixed(t *testing.T) {
	cfg := DefaultConfig()

	chosenMain := courseItem(99, domain.CourseMain, 10, "steamed", map[string]float64{"umami": 0.8, "fresh": 0.4})
	accepted := map[string]domain.CandidateItem{domain.CourseMain: chosenMain}

	result := ComposeMeal(composerPool(), 0, accepted, cfg)
	require.NotEmpty(t, result.Compositions)

	for _, comp := range result.Compositions {
		assert.Equal(t, uint64(99), comp.Items[domain.CourseMain].ID)
	}
}

func TestComposeMealSkipsItemsWithoutFeatures(t *testing.T) {
	cfg := DefaultConfig()

	pool := append(composerPool(), domain.CandidateItem{
		ID:     100,
		Course: domain.CourseDessert,
		Price:  1,
	})

	result := ComposeMeal(pool, 0, nil, cfg)
	for _, comp := range result.Compositions {
		assert.NotEqual(t, uint64(100), comp.Items[domain.CourseDessert].ID)
	}
}

func TestHarmonyRewardsContrastOverRepetition(t *testing.T) {
	cfg := DefaultConfig()

	contrasting := []domain.CandidateItem{
		courseItem(1, domain.CourseAppetizer, 0, "", map[string]float64{"fresh": 0.8, "sour": 0.4}),
		courseItem(2, domain.CourseMain, 0, "", map[string]float64{"rich": 0.9, "umami": 0.8}),
		courseItem(3, domain.CourseDessert, 0, "", map[string]float64{"sweet": 0.8}),
	}
	repetitive := []domain.CandidateItem{
		courseItem(4, domain.CourseAppetizer, 0, "", map[string]float64{"rich": 0.8}),
		courseItem(5, domain.CourseMain, 0, "", map[string]float64{"rich": 0.9}),
		courseItem(6, domain.CourseDessert, 0, "", map[string]float64{"rich": 0.85}),
	}

	assert.Greater(t, harmonyScore(contrasting, cfg), harmonyScore(repetitive, cfg))
}

func TestMethodVariety(t *testing.T) {
	varied := []domain.CandidateItem{
		{CookingMethod: "grilled"},
		{CookingMethod: "steamed"},
		{CookingMethod: "raw"},
	}
	same := []domain.CandidateItem{
		{CookingMethod: "fried"},
		{CookingMethod: "fried"},
		{CookingMethod: "fried"},
	}

	assert.InDelta(t, 1.0, methodVariety(varied), 1e-9)
	assert.InDelta(t, 1.0/3.0, methodVariety(same), 1e-9)
	assert.InDelta(t, 0.0, methodVariety([]domain.CandidateItem{{}, {}}), 1e-9)
}
