package recommend

import "math"

// cosineOver computes cosine similarity of two axis-keyed vectors read
// through the canonical axis list. Missing axes read as zero.
func cosineOver(axes []string, a, b map[string]float64) float64 {
	var dot, na, nb float64
	for _, axis := range axes {
		av := a[axis]
		bv := b[axis]
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampAbs clamps v into [-bound, bound].
func clampAbs(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

// meanIntensity is the average feature value of an item, used for the
// lighter-to-richer progression term in meal composition.
func meanIntensity(axes []string, features map[string]float64) float64 {
	if len(axes) == 0 {
		return 0
	}
	sum := 0.0
	for _, axis := range axes {
		sum += features[axis]
	}
	return sum / float64(len(axes))
}

// dominantAxis returns the highest-valued axis, or "" for an empty
// feature vector.
func dominantAxis(axes []string, features map[string]float64) string {
	best := ""
	bestVal := 0.0
	for _, axis := range axes {
		if v := features[axis]; v > bestVal {
			best = axis
			bestVal = v
		}
	}
	return best
}
