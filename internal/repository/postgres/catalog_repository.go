package postgres

import (
	"context"
	"fmt"

	"plateful/domain"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) FindAll(ctx context.Context) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.CandidateItem
	if err := r.DB.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query catalog_items: %w", err)
	}

	for i := range items {
		decodeFeatures(&items[i])
	}
	return items, nil
}

func (r *CatalogRepository) FindByID(ctx context.Context, id uint64) (domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.CandidateItem{}, fmt.Errorf("context error: %w", err)
	}

	var item domain.CandidateItem
	err := r.DB.WithContext(ctx).First(&item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return domain.CandidateItem{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.CandidateItem{}, fmt.Errorf("failed to query catalog item %d: %w", id, err)
	}

	decodeFeatures(&item)
	return item, nil
}

func (r *CatalogRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(ids) == 0 {
		return []domain.CandidateItem{}, nil
	}

	var items []domain.CandidateItem
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}

	for i := range items {
		decodeFeatures(&items[i])
	}
	return items, nil
}

// decodeFeatures converts the jsonb column into the typed feature map.
// Non-numeric values are dropped rather than failing the whole row.
func decodeFeatures(item *domain.CandidateItem) {
	if len(item.FeaturesRaw) == 0 {
		return
	}
	item.Features = make(map[string]float64, len(item.FeaturesRaw))
	for axis, v := range item.FeaturesRaw {
		if f, ok := v.(float64); ok {
			item.Features[axis] = f
		}
	}
}
