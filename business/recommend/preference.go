package recommend

import (
	"math"
	"time"

	"plateful/domain"
)

// TemporalWeight down-weights older evidence with an exponential
// half-life: 0.5^(ageDays / halfLifeDays). Strictly decreasing in age,
// approaching but never reaching zero.
func TemporalWeight(occurredAt, now time.Time, halfLifeDays float64) float64 {
	ageDays := now.Sub(occurredAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Pow(0.5, ageDays/halfLifeDays)
}

// UpdateProfile applies one feedback observation to the profile's Beta
// beliefs. Positive evidence pushes alpha, negative pushes beta with a
// strictly larger strength constant: a dislike tells us more than a
// like. Each update also nudges the complementary parameter by a small
// regularization fraction so beliefs never collapse to certainty.
func UpdateProfile(
	p *domain.TasteProfile,
	item domain.CandidateItem,
	positive bool,
	temporalWeight float64,
	cfg Config,
) {
	strength := cfg.PositiveStrength
	if !positive {
		strength = cfg.NegativeStrength
	}

	for _, axis := range cfg.Axes {
		intensity, ok := item.Features[axis]
		if !ok || intensity <= 0 {
			continue
		}

		bp, ok := p.Axes[axis]
		if !ok {
			bp = domain.NewBetaParams(cfg.PriorAlpha, cfg.PriorBeta)
		}

		delta := temporalWeight * intensity * strength
		if positive {
			bp.Alpha += delta
			bp.Beta += cfg.RegularizationRatio * delta
		} else {
			bp.Beta += delta
			bp.Alpha += cfg.RegularizationRatio * delta
		}
		bp.Floor()
		p.Axes[axis] = bp
	}

	// Same asymmetry for cuisine beliefs; a cuisine tag counts as full
	// intensity.
	for _, cuisine := range item.Cuisines {
		bp, ok := p.Cuisines[cuisine]
		if !ok {
			bp = domain.NewBetaParams(cfg.PriorAlpha, cfg.PriorBeta)
		}

		delta := temporalWeight * strength
		if positive {
			bp.Alpha += delta
			bp.Beta += cfg.RegularizationRatio * delta
		} else {
			bp.Beta += delta
			bp.Alpha += cfg.RegularizationRatio * delta
		}
		bp.Floor()
		p.Cuisines[cuisine] = bp

		if p.RatedCuisines == nil {
			p.RatedCuisines = make(map[string]int)
		}
		p.RatedCuisines[cuisine]++
	}

	p.FeedbackCount++
	p.UpdatedAt = time.Now()
}

// SampleVector draws one Thompson sample per axis.
func SampleVector(p *domain.TasteProfile, sampler *Sampler, cfg Config) map[string]float64 {
	out := make(map[string]float64, len(cfg.Axes))
	for _, axis := range cfg.Axes {
		bp, ok := p.Axes[axis]
		if !ok {
			bp = domain.NewBetaParams(cfg.PriorAlpha, cfg.PriorBeta)
		}
		out[axis] = sampler.Beta(bp.Alpha, bp.Beta)
	}
	return out
}

// BlendedQueryVector mixes the posterior mean with a fresh stochastic
// sample (default 70/30) so exploration stays centered on known
// preferences.
func BlendedQueryVector(p *domain.TasteProfile, sampler *Sampler, cfg Config) map[string]float64 {
	sample := SampleVector(p, sampler, cfg)
	out := make(map[string]float64, len(cfg.Axes))
	for _, axis := range cfg.Axes {
		bp, ok := p.Axes[axis]
		if !ok {
			bp = domain.NewBetaParams(cfg.PriorAlpha, cfg.PriorBeta)
		}
		out[axis] = cfg.BlendMeanWeight*bp.Mean() + cfg.BlendSampleWeight*sample[axis]
	}
	return out
}
