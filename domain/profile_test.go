package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetaParams(t *testing.T) {
	p := NewBetaParams(2, 2)
	assert.InDelta(t, 0.5, p.Mean(), 1e-9)

	expected := math.Sqrt(4.0 / (16.0 * 5.0))
	assert.InDelta(t, expected, p.Uncertainty(), 1e-9)

	// evidence tightens the posterior
	tight := NewBetaParams(20, 20)
	assert.Less(t, tight.Uncertainty(), p.Uncertainty())
}

func TestBetaParamsFloor(t *testing.T) {
	p := NewBetaParams(0, -5)
	assert.InDelta(t, 0.01, p.Alpha, 1e-12)
	assert.InDelta(t, 0.01, p.Beta, 1e-12)

	// floored parameters still give a defined mean
	assert.False(t, math.IsNaN(p.Mean()))
}

func TestNewTasteProfile(t *testing.T) {
	p := NewTasteProfile(7, []string{"sweet", "spicy"}, []string{"thai"}, 2, 2)

	require.Len(t, p.Axes, 2)
	require.Len(t, p.Cuisines, 1)
	assert.Equal(t, uint(7), p.UserID)
	assert.Equal(t, 0, p.FeedbackCount)
	assert.InDelta(t, 0.5, p.Axes["sweet"].Mean(), 1e-9)
}

func TestMeanVectorIsReadOnly(t *testing.T) {
	p := NewTasteProfile(1, []string{"sweet"}, nil, 3, 1)

	v := p.MeanVector()
	assert.InDelta(t, 0.75, v["sweet"], 1e-9)

	v["sweet"] = 0
	assert.InDelta(t, 0.75, p.Axes["sweet"].Mean(), 1e-9)
}

func TestCloneIsIndependent(t *testing.T) {
	p := NewTasteProfile(1, []string{"sweet"}, []string{"thai"}, 2, 2)
	p.FeedbackCount = 5
	p.RatedCuisines["thai"] = 3
	p.Version = 2

	cp := p.Clone()
	require.Equal(t, p.FeedbackCount, cp.FeedbackCount)
	require.Equal(t, p.Version, cp.Version)

	cp.Axes["sweet"] = NewBetaParams(10, 1)
	cp.RatedCuisines["thai"] = 99

	assert.InDelta(t, 0.5, p.Axes["sweet"].Mean(), 1e-9)
	assert.Equal(t, 3, p.RatedCuisines["thai"])
}

func TestSessionTerminal(t *testing.T) {
	s := SessionState{Status: SessionActive}
	assert.False(t, s.Terminal())

	s.Status = SessionCompleted
	assert.True(t, s.Terminal())

	s.Status = SessionAbandoned
	assert.True(t, s.Terminal())
}

func TestFeedbackPositive(t *testing.T) {
	assert.True(t, FeedbackEvent{EventType: FeedbackLike}.Positive())
	assert.True(t, FeedbackEvent{EventType: FeedbackOrder}.Positive())
	assert.False(t, FeedbackEvent{EventType: FeedbackDislike}.Positive())
	assert.False(t, FeedbackEvent{EventType: FeedbackSkip}.Positive())
}
