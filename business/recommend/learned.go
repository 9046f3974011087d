package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"plateful/domain"
)

// LearnedScorer is the optional trained scoring model. The engine uses
// it only when present and falls back to rule-based scoring with
// identical externally-observable behavior when it is absent or fails.
type LearnedScorer interface {
	Predict(ctx context.Context, rows [][]float64) ([]float64, error)
}

// guardedScorer wraps a LearnedScorer with a per-call timeout and a
// circuit breaker so a flapping model server cannot stall the serving
// pipeline.
type guardedScorer struct {
	inner   LearnedScorer
	breaker *gobreaker.CircuitBreaker[[]float64]
	timeout time.Duration
}

func newGuardedScorer(inner LearnedScorer, timeout time.Duration) *guardedScorer {
	if inner == nil {
		return nil
	}
	return &guardedScorer{
		inner: inner,
		breaker: gobreaker.NewCircuitBreaker[[]float64](gobreaker.Settings{
			Name:    "learned-scorer",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		timeout: timeout,
	}
}

func (g *guardedScorer) predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	return g.breaker.Execute(func() ([]float64, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		preds, err := g.inner.Predict(callCtx, rows)
		if err != nil {
			return nil, err
		}
		if len(preds) != len(rows) {
			return nil, fmt.Errorf("learned scorer returned %d scores for %d rows", len(preds), len(rows))
		}
		return preds, nil
	})
}

// applyLearned replaces the rule-based aggregates in place. Not retried
// within the same request: a single failure means the whole batch stays
// rule-based.
func (sc *Scorer) applyLearned(ctx context.Context, scored []domain.ScoredCandidate) error {
	rows := make([][]float64, len(scored))
	for i, s := range scored {
		rows[i] = sc.featureRow(s.Item)
	}

	preds, err := sc.learned.predict(ctx, rows)
	if err != nil {
		return err
	}

	for i := range scored {
		scored[i].Components["learned"] = preds[i]
		scored[i].Score = clamp01(preds[i])
	}
	return nil
}

// featureRow flattens an item into the model's input layout: one value
// per canonical axis, then price and popularity.
func (sc *Scorer) featureRow(item domain.CandidateItem) []float64 {
	row := make([]float64, 0, len(sc.cfg.Axes)+2)
	for _, axis := range sc.cfg.Axes {
		row = append(row, item.Features[axis])
	}
	row = append(row, item.Price, item.Popularity)
	return row
}
