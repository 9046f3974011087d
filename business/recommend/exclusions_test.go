package recommend

import (
	"testing"
	"time"

	"plateful/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeExclusions(t *testing.T) {
	cfg := DefaultConfig() // 7d order window, 30d dislike window
	now := time.Now()

	history := []domain.InteractionEvent{
		{ItemID: 1, EventType: domain.InteractionOrdered, CreatedAt: now.AddDate(0, 0, -3)},
		{ItemID: 2, EventType: domain.InteractionOrdered, CreatedAt: now.AddDate(0, 0, -10)},
		{ItemID: 3, EventType: domain.InteractionDisliked, CreatedAt: now.AddDate(0, 0, -10)},
		{ItemID: 4, EventType: domain.InteractionDisliked, CreatedAt: now.AddDate(0, 0, -40)},
		{ItemID: 5, EventType: domain.InteractionExcluded, CreatedAt: now.AddDate(0, 0, -400)},
		{ItemID: 6, EventType: domain.InteractionRated, CreatedAt: now.AddDate(0, 0, -2)},
		{ItemID: 7, EventType: domain.InteractionShown, CreatedAt: now.AddDate(0, 0, -1)},
	}

	ex := ComputeExclusions(history, now, cfg)

	assert.Equal(t, ExcludedRecentOrder, ex[1])
	assert.False(t, ex.Contains(2), "order outside the recency window")
	assert.Equal(t, ExcludedDisliked, ex[3])
	assert.False(t, ex.Contains(4), "dislike outside the decay window")
	assert.Equal(t, ExcludedPermanent, ex[5], "permanent exclusions never age out")
	assert.Equal(t, ExcludedRecentOrder, ex[6], "recent ratings count like orders")
	assert.False(t, ex.Contains(7), "shown alone never excludes")
}

func TestComputeExclusionsPermanentWins(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()

	history := []domain.InteractionEvent{
		{ItemID: 9, EventType: domain.InteractionExcluded, CreatedAt: now.AddDate(0, 0, -100)},
		{ItemID: 9, EventType: domain.InteractionDisliked, CreatedAt: now.AddDate(0, 0, -1)},
		{ItemID: 9, EventType: domain.InteractionOrdered, CreatedAt: now.AddDate(0, 0, -1)},
	}

	ex := ComputeExclusions(history, now, cfg)
	assert.Equal(t, ExcludedPermanent, ex[9])
}

func TestComputeExclusionsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	history := []domain.InteractionEvent{
		{ItemID: 1, EventType: domain.InteractionOrdered, CreatedAt: now.AddDate(0, 0, -1)},
		{ItemID: 2, EventType: domain.InteractionDisliked, CreatedAt: now.AddDate(0, 0, -5)},
	}

	a := ComputeExclusions(history, now, cfg)
	b := ComputeExclusions(history, now, cfg)
	assert.Equal(t, a, b)
}
