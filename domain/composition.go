package domain

// Course labels used by the composition engine. Order matters: it is
// the serving order used for the intensity-progression term.
const (
	CourseAppetizer = "appetizer"
	CourseMain      = "main"
	CourseDessert   = "dessert"
)

// CourseOrder is the canonical serving order.
var CourseOrder = []string{CourseAppetizer, CourseMain, CourseDessert}

// CourseComposition is one composed multi-course meal. Ephemeral,
// generated per composition request.
type CourseComposition struct {
	Items           map[string]CandidateItem `json:"items"` // course -> item
	Harmony         float64                  `json:"harmony"`
	TotalPrice      float64                  `json:"total_price"`
	DurationMinutes int                      `json:"duration_minutes"`
}

// CompositionResult wraps the ranked compositions plus an explicit
// reason when none could be built.
type CompositionResult struct {
	Compositions []CourseComposition `json:"compositions"`
	Reason       string              `json:"reason,omitempty"`
}
