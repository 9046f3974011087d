package postgres

import (
	"context"
	"fmt"
	"time"

	"plateful/domain"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{DB: db}
}

func (r *InteractionRepository) History(
	ctx context.Context,
	userID uint,
	since time.Time,
) ([]domain.InteractionEvent, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var events []domain.InteractionEvent
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND (created_at >= ? OR event_type = ?)", userID, since, domain.InteractionExcluded).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction_events: %w", err)
	}

	return events, nil
}

func (r *InteractionRepository) Append(ctx context.Context, events []domain.InteractionEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).Create(&events).Error; err != nil {
		return fmt.Errorf("failed to append interaction events: %w", err)
	}
	return nil
}
