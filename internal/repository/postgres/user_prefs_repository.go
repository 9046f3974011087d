package postgres

import (
	"context"
	"fmt"

	"plateful/domain"

	"gorm.io/gorm"
)

type UserPrefsRepository struct {
	DB *gorm.DB
}

func NewUserPrefsRepository(db *gorm.DB) *UserPrefsRepository {
	return &UserPrefsRepository{DB: db}
}

func (r *UserPrefsRepository) GetPrefs(ctx context.Context, userID uint) (domain.UserPrefs, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserPrefs{}, fmt.Errorf("context error: %w", err)
	}

	var prefs domain.UserPrefs
	err := r.DB.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if err == gorm.ErrRecordNotFound {
		return domain.UserPrefs{UserID: userID}, nil
	}
	if err != nil {
		return domain.UserPrefs{}, fmt.Errorf("failed to query user_prefs: %w", err)
	}

	return prefs, nil
}
