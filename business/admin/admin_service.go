package admin

import (
	"context"
	"errors"
	"fmt"

	"plateful/business/recommend"
	"plateful/domain"
	"plateful/pkg/logger"
)

// EmbeddingSource supplies the index build input.
type EmbeddingSource interface {
	Embeddings(ctx context.Context, axes []string) ([][]float64, []uint64, error)
}

type adminService struct {
	embeddings EmbeddingSource
	index      recommend.VectorIndex
	cfgRepo    recommend.ConfigRepository
	tracker    *recommend.RebuildTracker
	axes       []string
}

func NewAdminService(
	embeddings EmbeddingSource,
	index recommend.VectorIndex,
	cfgRepo recommend.ConfigRepository,
	tracker *recommend.RebuildTracker,
	axes []string,
) *adminService {
	return &adminService{
		embeddings: embeddings,
		index:      index,
		cfgRepo:    cfgRepo,
		tracker:    tracker,
		axes:       axes,
	}
}

// RebuildIndex rebuilds the vector index synchronously. The served
// snapshot stays live until the new one is swapped in, so callers may
// run this from a background goroutine without a maintenance window.
func (s *adminService) RebuildIndex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	snap := s.tracker.Snapshot()
	if snap.State == "running" {
		return errors.New("rebuild already in progress")
	}

	embeddings, ids, err := s.embeddings.Embeddings(ctx, s.axes)
	if err != nil {
		s.tracker.Start(0)
		s.tracker.Finish(err)
		return fmt.Errorf("load embeddings: %w", err)
	}

	s.tracker.Start(len(ids))
	if err := s.index.Build(ctx, embeddings, ids); err != nil {
		s.tracker.Finish(err)
		logger.Error("index_rebuild_failed", "error", err)
		return fmt.Errorf("build index: %w", err)
	}
	s.tracker.Finish(nil)

	logger.Info("index_rebuilt", "items", len(ids))
	return nil
}

func (s *adminService) RebuildStatus() recommend.RebuildStatus {
	return s.tracker.Snapshot()
}

func (s *adminService) GetEngineParams(ctx context.Context) (domain.EngineParams, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.EngineParams{}, false, fmt.Errorf("context error: %w", err)
	}
	return s.cfgRepo.GetParams(ctx)
}

func (s *adminService) UpdateEngineParams(ctx context.Context, params domain.EngineParams) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if err := s.cfgRepo.UpsertParams(ctx, params); err != nil {
		return fmt.Errorf("failed to upsert engine params: %w", err)
	}
	logger.Info("engine_params_updated")
	return nil
}
