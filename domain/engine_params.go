package domain

import "time"

// EngineParams is the persisted serving-time override of the engine's
// default tunables. A single row; zero-valued fields keep defaults.
type EngineParams struct {
	ID uint `json:"id" gorm:"primaryKey"`

	LambdaCuisine          float64 `json:"lambda_cuisine" gorm:"column:lambda_cuisine"`
	LambdaPopularity       float64 `json:"lambda_popularity" gorm:"column:lambda_popularity"`
	ExplorationCoefficient float64 `json:"exploration_coefficient" gorm:"column:exploration_coefficient"`
	DiversityWeight        float64 `json:"diversity_weight" gorm:"column:diversity_weight"`
	BlendMeanWeight        float64 `json:"blend_mean_weight" gorm:"column:blend_mean_weight"`
	RepeatPenaltyWeight    float64 `json:"repeat_penalty_weight" gorm:"column:repeat_penalty_weight"`

	MaxPerCuisine     int `json:"max_per_cuisine" gorm:"column:max_per_cuisine"`
	MaxPerRestaurant  int `json:"max_per_restaurant" gorm:"column:max_per_restaurant"`
	MaxPerPriceBucket int `json:"max_per_price_bucket" gorm:"column:max_per_price_bucket"`

	RecentOrderWindowDays int `json:"recent_order_window_days" gorm:"column:recent_order_window_days"`
	DislikeWindowDays     int `json:"dislike_window_days" gorm:"column:dislike_window_days"`

	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (EngineParams) TableName() string {
	return "engine_params"
}
