package recommend

import (
	"context"

	"plateful/domain"
)

// Config carries every engine tunable as a named value so behavior is
// independently testable. DefaultConfig is authoritative; a DB-backed
// ConfigRepository may override the serving-time subset.
type Config struct {
	// Axes is the canonical taste-axis list. Feature vectors are read
	// through this list so scoring is deterministic regardless of map
	// iteration order.
	Axes []string

	// Bayesian model
	HalfLifeDays        float64
	PositiveStrength    float64
	NegativeStrength    float64 // strictly larger: negative signals are trusted more
	RegularizationRatio float64 // complementary counter-update fraction
	PriorAlpha          float64
	PriorBeta           float64

	// Scoring
	LambdaCuisine            float64
	LambdaPopularity         float64
	ExplorationCoefficient   float64
	IngredientBonusWeight    float64
	ProvenancePenaltyWeight  float64
	AdjustmentBound          float64 // each contextual adjustment is clamped to ±this
	SignificantFeatureCutoff float64

	// Query vector blend: exploration stays centered on known
	// preferences.
	BlendMeanWeight   float64
	BlendSampleWeight float64

	// Retrieval
	RetrievalInflation int // requested k is multiplied by this before the index search

	// Diversity selection
	DiversityWeight   float64
	MaxPerCuisine     int
	MaxPerRestaurant  int
	MaxPerPriceBucket int
	PriceBucketSize   float64

	// Meal composition
	TopPerCourse        int
	BudgetTolerance     float64
	MaxCompositions     int
	BaseDurationMinutes int
	PerCourseMinutes    int
	HarmonyWeight       float64
	MethodVarietyWeight float64

	// Exclusion / penalty windows
	RecentOrderWindowDays   int
	DislikeWindowDays       int
	RepeatPenaltyWindowDays int
	RepeatPenaltyWeight     float64

	// Session round shaping
	FatiguePenalty float64 // per prior showing of the same item

	// Confidence
	ProfileSaturationScale float64
}

const (
	defaultHalfLifeDays        = 30.0
	defaultPositiveStrength    = 1.0
	defaultNegativeStrength    = 2.0
	defaultRegularizationRatio = 0.1
	defaultPriorAlpha          = 2.0
	defaultPriorBeta           = 2.0

	defaultLambdaCuisine            = 0.2
	defaultLambdaPopularity         = 0.1
	defaultExplorationCoefficient   = 0.15
	defaultIngredientBonusWeight    = 0.1
	defaultProvenancePenaltyWeight  = 0.1
	defaultAdjustmentBound          = 0.4
	defaultSignificantFeatureCutoff = 0.6

	defaultBlendMeanWeight   = 0.7
	defaultBlendSampleWeight = 0.3

	defaultRetrievalInflation = 4

	defaultDiversityWeight   = 0.3
	defaultMaxPerCuisine     = 2
	defaultMaxPerRestaurant  = 2
	defaultMaxPerPriceBucket = 3
	defaultPriceBucketSize   = 10.0

	defaultTopPerCourse        = 5
	defaultBudgetTolerance     = 1.15
	defaultMaxCompositions     = 5
	defaultBaseDurationMinutes = 20
	defaultPerCourseMinutes    = 25
	defaultHarmonyWeight       = 0.7
	defaultMethodVarietyWeight = 0.3

	defaultRecentOrderWindowDays   = 7
	defaultDislikeWindowDays       = 30
	defaultRepeatPenaltyWindowDays = 30
	defaultRepeatPenaltyWeight     = 0.3

	defaultFatiguePenalty = 0.05

	defaultProfileSaturationScale = 20.0
)

// DefaultAxes is the canonical flavor-profile dimensionality.
var DefaultAxes = []string{"sweet", "salty", "sour", "bitter", "umami", "spicy", "rich", "fresh"}

func DefaultConfig() Config {
	return Config{
		Axes: DefaultAxes,

		HalfLifeDays:        defaultHalfLifeDays,
		PositiveStrength:    defaultPositiveStrength,
		NegativeStrength:    defaultNegativeStrength,
		RegularizationRatio: defaultRegularizationRatio,
		PriorAlpha:          defaultPriorAlpha,
		PriorBeta:           defaultPriorBeta,

		LambdaCuisine:            defaultLambdaCuisine,
		LambdaPopularity:         defaultLambdaPopularity,
		ExplorationCoefficient:   defaultExplorationCoefficient,
		IngredientBonusWeight:    defaultIngredientBonusWeight,
		ProvenancePenaltyWeight:  defaultProvenancePenaltyWeight,
		AdjustmentBound:          defaultAdjustmentBound,
		SignificantFeatureCutoff: defaultSignificantFeatureCutoff,

		BlendMeanWeight:   defaultBlendMeanWeight,
		BlendSampleWeight: defaultBlendSampleWeight,

		RetrievalInflation: defaultRetrievalInflation,

		DiversityWeight:   defaultDiversityWeight,
		MaxPerCuisine:     defaultMaxPerCuisine,
		MaxPerRestaurant:  defaultMaxPerRestaurant,
		MaxPerPriceBucket: defaultMaxPerPriceBucket,
		PriceBucketSize:   defaultPriceBucketSize,

		TopPerCourse:        defaultTopPerCourse,
		BudgetTolerance:     defaultBudgetTolerance,
		MaxCompositions:     defaultMaxCompositions,
		BaseDurationMinutes: defaultBaseDurationMinutes,
		PerCourseMinutes:    defaultPerCourseMinutes,
		HarmonyWeight:       defaultHarmonyWeight,
		MethodVarietyWeight: defaultMethodVarietyWeight,

		RecentOrderWindowDays:   defaultRecentOrderWindowDays,
		DislikeWindowDays:       defaultDislikeWindowDays,
		RepeatPenaltyWindowDays: defaultRepeatPenaltyWindowDays,
		RepeatPenaltyWeight:     defaultRepeatPenaltyWeight,

		FatiguePenalty: defaultFatiguePenalty,

		ProfileSaturationScale: defaultProfileSaturationScale,
	}
}

// ConfigRepository reads serving-time parameter overrides from the DB.
type ConfigRepository interface {
	GetParams(ctx context.Context) (domain.EngineParams, bool, error)
	UpsertParams(ctx context.Context, params domain.EngineParams) error
}

// loadConfig overlays persisted overrides on the default config,
// keeping sane fallbacks for any missing fields.
func (s *Service) loadConfig(ctx context.Context) Config {
	if s.cfgRepo == nil {
		return s.defaultCfg
	}

	params, ok, err := s.cfgRepo.GetParams(ctx)
	if err != nil || !ok {
		return s.defaultCfg
	}

	cfg := s.defaultCfg

	if params.LambdaCuisine > 0 {
		cfg.LambdaCuisine = params.LambdaCuisine
	}
	if params.LambdaPopularity > 0 {
		cfg.LambdaPopularity = params.LambdaPopularity
	}
	if params.ExplorationCoefficient > 0 {
		cfg.ExplorationCoefficient = params.ExplorationCoefficient
	}
	if params.DiversityWeight > 0 {
		cfg.DiversityWeight = params.DiversityWeight
	}
	if params.BlendMeanWeight > 0 && params.BlendMeanWeight < 1 {
		cfg.BlendMeanWeight = params.BlendMeanWeight
		cfg.BlendSampleWeight = 1 - params.BlendMeanWeight
	}
	if params.RepeatPenaltyWeight > 0 {
		cfg.RepeatPenaltyWeight = params.RepeatPenaltyWeight
	}
	if params.MaxPerCuisine > 0 {
		cfg.MaxPerCuisine = params.MaxPerCuisine
	}
	if params.MaxPerRestaurant > 0 {
		cfg.MaxPerRestaurant = params.MaxPerRestaurant
	}
	if params.MaxPerPriceBucket > 0 {
		cfg.MaxPerPriceBucket = params.MaxPerPriceBucket
	}
	if params.RecentOrderWindowDays > 0 {
		cfg.RecentOrderWindowDays = params.RecentOrderWindowDays
	}
	if params.DislikeWindowDays > 0 {
		cfg.DislikeWindowDays = params.DislikeWindowDays
	}

	return cfg
}
