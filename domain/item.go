package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Provenance of an item's taste features.
const (
	ProvenanceMeasured = "measured" // supplied directly by the restaurant
	ProvenanceInferred = "inferred" // derived from ingredients/category
)

// CandidateItem is a catalog dish. The engine treats it as immutable;
// the catalog store owns its lifecycle.
type CandidateItem struct {
	ID            uint64  `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"column:name;type:text" json:"name"`
	Restaurant    string  `gorm:"column:restaurant;type:text" json:"restaurant"`
	Course        string  `gorm:"column:course;type:text" json:"course"` // appetizer|main|dessert
	Price         float64 `gorm:"column:price;type:numeric" json:"price"`
	Popularity    float64 `gorm:"column:popularity;type:numeric" json:"popularity"` // [0,1]
	CookingMethod string  `gorm:"column:cooking_method;type:text" json:"cooking_method"`

	// Features maps taste axis -> intensity in [0,1].
	FeaturesRaw datatypes.JSONMap  `gorm:"column:features;type:jsonb" json:"-"`
	Features    map[string]float64 `gorm:"-" json:"features"`

	Cuisines    []string `gorm:"serializer:json;column:cuisines" json:"cuisines"`
	Ingredients []string `gorm:"serializer:json;column:ingredients" json:"ingredients"`
	Allergens   []string `gorm:"serializer:json;column:allergens" json:"allergens"`
	DietaryTags []string `gorm:"serializer:json;column:dietary_tags" json:"dietary_tags"`

	// TimeOfDay lists the dayparts the item is served in
	// ("morning", "afternoon", "evening", "night"); empty = always.
	TimeOfDay []string `gorm:"serializer:json;column:time_of_day" json:"time_of_day"`

	// Provenance discounts confidence for inferred feature vectors.
	Provenance           string  `gorm:"column:provenance;type:text" json:"provenance"`
	ProvenanceConfidence float64 `gorm:"column:provenance_confidence;type:numeric" json:"provenance_confidence"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CandidateItem) TableName() string {
	return "catalog_items"
}

// ScoredCandidate is an ephemeral per-request scoring result: the item
// plus every named component and contextual adjustment that produced
// the aggregate, for explainability.
type ScoredCandidate struct {
	Item          CandidateItem      `json:"item"`
	Components    map[string]float64 `json:"components"`
	Adjustments   map[string]float64 `json:"adjustments"`
	Score         float64            `json:"score"` // aggregate, clamped to [0,1]
	Confidence    float64            `json:"confidence"`
	Justification string             `json:"justification"`
}
