package postgres

import (
	"context"
	"fmt"

	"plateful/business/recommend"
	"plateful/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EngineParamsRepository struct {
	DB *gorm.DB
}

var _ recommend.ConfigRepository = (*EngineParamsRepository)(nil)

func NewEngineParamsRepository(db *gorm.DB) *EngineParamsRepository {
	return &EngineParamsRepository{DB: db}
}

func (r *EngineParamsRepository) GetParams(ctx context.Context) (domain.EngineParams, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.EngineParams{}, false, fmt.Errorf("context error: %w", err)
	}

	var params domain.EngineParams
	err := r.DB.WithContext(ctx).First(&params).Error
	if err == gorm.ErrRecordNotFound {
		return domain.EngineParams{}, false, nil
	}
	if err != nil {
		return domain.EngineParams{}, false, fmt.Errorf("failed to query engine_params: %w", err)
	}

	return params, true, nil
}

func (r *EngineParamsRepository) UpsertParams(ctx context.Context, params domain.EngineParams) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	params.ID = 1
	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		},
	).Create(&params).Error; err != nil {
		return fmt.Errorf("failed to upsert engine_params: %w", err)
	}

	return nil
}
