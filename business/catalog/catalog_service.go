package catalog

import (
	"context"
	"errors"
	"fmt"

	"plateful/domain"
	"plateful/pkg/logger"
)

// CatalogRepository contract interface
type CatalogRepository interface {
	FindAll(ctx context.Context) ([]domain.CandidateItem, error)
	FindByID(ctx context.Context, id uint64) (domain.CandidateItem, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error)
}

type catalogService struct {
	catalogRepo CatalogRepository
}

func NewCatalogService(catalogRepo CatalogRepository) *catalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
	}
}

func (s *catalogService) GetAllItems(ctx context.Context) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when get all items")
		return nil, fmt.Errorf("context error: %w", err)
	}

	items, err := s.catalogRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to find all items", "error", err)
		return nil, err
	}

	return items, nil
}

func (s *catalogService) GetItemByID(ctx context.Context, id uint64) (*domain.CandidateItem, error) {
	if id == 0 {
		logger.Error("invalid item id")
		return nil, errors.New("invalid item id")
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	item, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// Embeddings flattens the catalog into the index build input: one row
// per item with a usable feature vector, read through the axis list.
func (s *catalogService) Embeddings(ctx context.Context, axes []string) ([][]float64, []uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context error: %w", err)
	}

	items, err := s.catalogRepo.FindAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	embeddings := make([][]float64, 0, len(items))
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		if len(item.Features) == 0 {
			continue
		}
		row := make([]float64, len(axes))
		for i, axis := range axes {
			row[i] = item.Features[axis]
		}
		embeddings = append(embeddings, row)
		ids = append(ids, item.ID)
	}

	return embeddings, ids, nil
}
