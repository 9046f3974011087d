package domain

import (
	"math"
	"time"
)

// betaEpsilon is the floor for Beta parameters. Keeping alpha/beta
// strictly positive keeps the distribution well-defined no matter how
// much negative evidence accumulates.
const betaEpsilon = 0.01

// BetaParams holds one Beta(alpha, beta) belief.
type BetaParams struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

func NewBetaParams(alpha, beta float64) BetaParams {
	p := BetaParams{Alpha: alpha, Beta: beta}
	p.Floor()
	return p
}

// Floor clamps both parameters to betaEpsilon.
func (p *BetaParams) Floor() {
	if p.Alpha < betaEpsilon {
		p.Alpha = betaEpsilon
	}
	if p.Beta < betaEpsilon {
		p.Beta = betaEpsilon
	}
}

// Mean = alpha / (alpha + beta).
func (p BetaParams) Mean() float64 {
	return p.Alpha / (p.Alpha + p.Beta)
}

// Uncertainty = sqrt(alpha*beta / ((alpha+beta)^2 * (alpha+beta+1))).
func (p BetaParams) Uncertainty() float64 {
	sum := p.Alpha + p.Beta
	return math.Sqrt(p.Alpha * p.Beta / (sum * sum * (sum + 1)))
}

// TasteProfile is the per-user belief state: one Beta distribution per
// taste axis and per cuisine. Created once at onboarding completion,
// mutated on every feedback event, never deleted.
type TasteProfile struct {
	UserID   uint                  `json:"user_id"`
	Axes     map[string]BetaParams `json:"axes"`
	Cuisines map[string]BetaParams `json:"cuisines"`

	// FeedbackCount is the total number of feedback events applied,
	// used by confidence estimation.
	FeedbackCount int `json:"feedback_count"`

	// RatedCuisines counts feedback events per cuisine.
	RatedCuisines map[string]int `json:"rated_cuisines"`

	// Version supports optimistic concurrency on profile writes.
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTasteProfile builds a profile with informative priors for the
// given axes and cuisines.
func NewTasteProfile(userID uint, axes, cuisines []string, priorAlpha, priorBeta float64) *TasteProfile {
	p := &TasteProfile{
		UserID:        userID,
		Axes:          make(map[string]BetaParams, len(axes)),
		Cuisines:      make(map[string]BetaParams, len(cuisines)),
		RatedCuisines: make(map[string]int),
		UpdatedAt:     time.Now(),
	}
	for _, a := range axes {
		p.Axes[a] = NewBetaParams(priorAlpha, priorBeta)
	}
	for _, c := range cuisines {
		p.Cuisines[c] = NewBetaParams(priorAlpha, priorBeta)
	}
	return p
}

// MeanVector returns the per-axis posterior means.
func (p *TasteProfile) MeanVector() map[string]float64 {
	out := make(map[string]float64, len(p.Axes))
	for axis, bp := range p.Axes {
		out[axis] = bp.Mean()
	}
	return out
}

// UncertaintyVector returns the per-axis posterior standard deviations.
func (p *TasteProfile) UncertaintyVector() map[string]float64 {
	out := make(map[string]float64, len(p.Axes))
	for axis, bp := range p.Axes {
		out[axis] = bp.Uncertainty()
	}
	return out
}

func (p *TasteProfile) Clone() *TasteProfile {
	cp := &TasteProfile{
		UserID:        p.UserID,
		Axes:          make(map[string]BetaParams, len(p.Axes)),
		Cuisines:      make(map[string]BetaParams, len(p.Cuisines)),
		RatedCuisines: make(map[string]int, len(p.RatedCuisines)),
		FeedbackCount: p.FeedbackCount,
		Version:       p.Version,
		UpdatedAt:     p.UpdatedAt,
	}
	for k, v := range p.Axes {
		cp.Axes[k] = v
	}
	for k, v := range p.Cuisines {
		cp.Cuisines[k] = v
	}
	for k, v := range p.RatedCuisines {
		cp.RatedCuisines[k] = v
	}
	return cp
}
