package recommend

import (
	"math"

	"plateful/domain"
)

// confidence blend weights. Profile certainty dominates: a model that
// has seen little feedback should say so regardless of context fit.
const (
	confWeightProfile  = 0.4
	confWeightFeatures = 0.2
	confWeightCuisine  = 0.2
	confWeightContext  = 0.2
)

// confidence blends profile certainty, feature completeness, cuisine
// familiarity, and context fit into a [0,1] score with a short
// justification fragment.
func (sc *Scorer) confidence(
	item domain.CandidateItem,
	profile *domain.TasteProfile,
	adjustments map[string]float64,
) (float64, string) {

	cfg := sc.cfg

	// Saturating function of total feedback volume.
	profileCertainty := 1 - math.Exp(-float64(profile.FeedbackCount)/cfg.ProfileSaturationScale)

	featureCompleteness := 0.0
	if len(cfg.Axes) > 0 {
		present := 0
		for _, axis := range cfg.Axes {
			if _, ok := item.Features[axis]; ok {
				present++
			}
		}
		featureCompleteness = float64(present) / float64(len(cfg.Axes))
	}
	if item.Provenance == domain.ProvenanceInferred {
		featureCompleteness *= item.ProvenanceConfidence
	}

	// How many same-cuisine items the user has already rated.
	ratedSameCuisine := 0
	for _, c := range item.Cuisines {
		ratedSameCuisine += profile.RatedCuisines[c]
	}
	cuisineFamiliarity := 1 - math.Exp(-float64(ratedSameCuisine)/5.0)

	// Context fit: positive adjustments raise it, negative lower it.
	contextSum := 0.0
	for _, v := range adjustments {
		contextSum += v
	}
	contextFit := clamp01(0.5 + contextSum)

	conf := clamp01(
		confWeightProfile*profileCertainty +
			confWeightFeatures*featureCompleteness +
			confWeightCuisine*cuisineFamiliarity +
			confWeightContext*contextFit,
	)

	return conf, confidenceJustification(profileCertainty, featureCompleteness, cuisineFamiliarity, contextFit)
}

func confidenceJustification(profileCertainty, featureCompleteness, cuisineFamiliarity, contextFit float64) string {
	switch {
	case profileCertainty < 0.3:
		return "still learning your taste profile"
	case featureCompleteness < 0.5:
		return "limited flavor data for this dish"
	case cuisineFamiliarity < 0.3:
		return "a cuisine you haven't rated much yet"
	case contextFit < 0.4:
		return "an unusual pick for this context"
	case profileCertainty >= 0.7 && cuisineFamiliarity >= 0.6:
		return "based on consistent feedback on similar dishes"
	default:
		return "a reasonable match for your taste profile"
	}
}
