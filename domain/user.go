package domain

import "time"

// UserPrefs holds the hard dietary constraints for a user. These are
// safety rules: items violating them never surface, regardless of the
// retrieval path.
type UserPrefs struct {
	UserID      uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	Allergens   []string  `gorm:"serializer:json;column:allergens" json:"allergens"`
	DietaryTags []string  `gorm:"serializer:json;column:dietary_tags" json:"dietary_tags"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserPrefs) TableName() string {
	return "user_prefs"
}
