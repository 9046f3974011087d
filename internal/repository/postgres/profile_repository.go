package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"plateful/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

type tasteProfileRow struct {
	UserID      uint   `gorm:"column:user_id;primaryKey"`
	Version     int    `gorm:"column:version"`
	ProfileJSON []byte `gorm:"column:profile_json"`
}

func (tasteProfileRow) TableName() string {
	return "taste_profiles"
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID uint) (*domain.TasteProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var row tasteProfileRow
	err := r.DB.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query taste_profiles: %w", err)
	}

	var profile domain.TasteProfile
	if err := json.Unmarshal(row.ProfileJSON, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile_json: %w", err)
	}
	profile.UserID = row.UserID
	profile.Version = row.Version

	return &profile, nil
}

// SaveProfile writes the profile guarded by its version: the update
// only lands when the stored version still matches, and bumps it by
// one. A stale version returns domain.ErrProfileConflict so the caller
// can re-read and merge.
func (r *ProfileRepository) SaveProfile(ctx context.Context, profile *domain.TasteProfile) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if profile.Version == 0 {
		row := tasteProfileRow{
			UserID:      profile.UserID,
			Version:     1,
			ProfileJSON: raw,
		}
		res := r.DB.WithContext(ctx).Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoNothing: true,
			},
		).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to insert taste_profile: %w", res.Error)
		}
		// Zero rows affected means a concurrent insert won the race:
		// report a conflict so the caller re-reads and merges.
		if res.RowsAffected == 0 {
			return domain.ErrProfileConflict
		}
		profile.Version = 1
		return nil
	}

	res := r.DB.WithContext(ctx).Model(&tasteProfileRow{}).
		Where("user_id = ? AND version = ?", profile.UserID, profile.Version).
		Updates(map[string]any{
			"version":      profile.Version + 1,
			"profile_json": raw,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update taste_profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProfileConflict
	}

	profile.Version++
	return nil
}
