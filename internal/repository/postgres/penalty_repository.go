package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PenaltyRepository stores the per-user ingredient affinity map as a
// single JSON row per user.
type PenaltyRepository struct {
	DB *gorm.DB
}

func NewPenaltyRepository(db *gorm.DB) *PenaltyRepository {
	return &PenaltyRepository{DB: db}
}

type ingredientAffinityRow struct {
	UserID         uint   `gorm:"column:user_id;primaryKey"`
	AffinitiesJSON []byte `gorm:"column:affinities_json"`
}

func (ingredientAffinityRow) TableName() string {
	return "ingredient_affinities"
}

func (r *PenaltyRepository) GetAffinities(ctx context.Context, userID uint) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row ingredientAffinityRow
	err := r.DB.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient_affinities: %w", err)
	}

	var affinities map[string]float64
	if err := json.Unmarshal(row.AffinitiesJSON, &affinities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal affinities_json: %w", err)
	}
	return affinities, nil
}

func (r *PenaltyRepository) SaveAffinities(ctx context.Context, userID uint, affinities map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(affinities)
	if err != nil {
		return fmt.Errorf("failed to marshal affinities: %w", err)
	}

	row := ingredientAffinityRow{
		UserID:         userID,
		AffinitiesJSON: raw,
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		},
	).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert ingredient_affinities: %w", err)
	}

	return nil
}
