package postgres

import (
	"context"
	"fmt"

	"plateful/business/recommend"

	"gorm.io/gorm"
)

// SimilarityRepository loads the precomputed item-item similarity
// matrix maintained by the offline pipeline.
type SimilarityRepository struct {
	DB *gorm.DB
}

func NewSimilarityRepository(db *gorm.DB) *SimilarityRepository {
	return &SimilarityRepository{DB: db}
}

type itemSimilarityRow struct {
	ItemA      uint64  `gorm:"column:item_a;primaryKey"`
	ItemB      uint64  `gorm:"column:item_b;primaryKey"`
	Similarity float64 `gorm:"column:similarity"`
}

func (itemSimilarityRow) TableName() string {
	return "item_similarities"
}

// LoadMatrix pulls all pairs into memory. The matrix is read-mostly;
// callers hold the returned value and reload on the maintenance path's
// schedule.
func (r *SimilarityRepository) LoadMatrix(ctx context.Context) (recommend.SimilarityMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []itemSimilarityRow
	if err := r.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query item_similarities: %w", err)
	}

	matrix := make(recommend.SimilarityMatrix, len(rows))
	for _, row := range rows {
		a, b := row.ItemA, row.ItemB
		if a > b {
			a, b = b, a
		}
		matrix[[2]uint64{a, b}] = row.Similarity
	}

	return matrix, nil
}
