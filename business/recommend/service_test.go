package recommend

import (
	"context"
	"sync"
	"testing"

	"plateful/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSessions struct {
	mu     sync.Mutex
	stored map[string]domain.SessionState
}

func newMemSessions() *memSessions {
	return &memSessions{stored: make(map[string]domain.SessionState)}
}

func (m *memSessions) GetSession(_ context.Context, id string) (*domain.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stored[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := s
	cp.Shown = append([]uint64(nil), s.Shown...)
	cp.Excluded = append([]uint64(nil), s.Excluded...)
	return &cp, nil
}

func (m *memSessions) SaveSession(_ context.Context, session *domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	cp.Shown = append([]uint64(nil), session.Shown...)
	cp.Excluded = append([]uint64(nil), session.Excluded...)
	m.stored[session.ID] = cp
	return nil
}

type memUserPrefs struct {
	prefs map[uint]domain.UserPrefs
}

func (m *memUserPrefs) GetPrefs(_ context.Context, userID uint) (domain.UserPrefs, error) {
	if m == nil || m.prefs == nil {
		return domain.UserPrefs{UserID: userID}, nil
	}
	return m.prefs[userID], nil
}

func serviceCatalogItems() []domain.CandidateItem {
	return []domain.CandidateItem{
		{ID: 1, Restaurant: "r1", Course: domain.CourseMain, Price: 12, Cuisines: []string{"italian"},
			Features: map[string]float64{"sweet": 0.2, "umami": 0.8, "rich": 0.6}},
		{ID: 2, Restaurant: "r2", Course: domain.CourseMain, Price: 14, Cuisines: []string{"thai"},
			Features: map[string]float64{"spicy": 0.9, "umami": 0.5}},
		{ID: 3, Restaurant: "r3", Course: domain.CourseAppetizer, Price: 6, Cuisines: []string{"japanese"},
			Features: map[string]float64{"fresh": 0.8, "umami": 0.6}},
		{ID: 4, Restaurant: "r4", Course: domain.CourseDessert, Price: 7, Cuisines: []string{"french"},
			Features: map[string]float64{"sweet": 0.9, "rich": 0.5}},
		{ID: 5, Restaurant: "r5", Course: domain.CourseMain, Price: 11, Cuisines: []string{"mexican"},
			Features: map[string]float64{"spicy": 0.6, "salty": 0.5}},
	}
}

type serviceFixture struct {
	svc          *Service
	sessions     *memSessions
	profiles     *memProfiles
	interactions *memInteractions
	catalog      *memCatalog
}

func newServiceFixture(items ...domain.CandidateItem) *serviceFixture {
	if len(items) == 0 {
		items = serviceCatalogItems()
	}
	cfg := DefaultConfig()

	catalog := newMemCatalog(items...)
	profiles := newMemProfiles()
	interactions := &memInteractions{}
	feedback := &memFeedback{}
	penalties := newMemPenalties()
	sessions := newMemSessions()

	learner := NewLearner(cfg, profiles, interactions, feedback, penalties, catalog)

	// nil index: retrieval runs on the deterministic catalog scan
	svc := NewService(
		cfg,
		catalog,
		profiles,
		interactions,
		sessions,
		&memUserPrefs{},
		penalties,
		nil,
		nil,
		nil,
		NewSeededSampler(11),
		learner,
		nil,
		0,
	)

	return &serviceFixture{
		svc:          svc,
		sessions:     sessions,
		profiles:     profiles,
		interactions: interactions,
		catalog:      catalog,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{MealIntent: "dinner"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, domain.SessionActive, session.Status)
	assert.Equal(t, 0, session.Iteration)

	result, err := f.svc.NextRound(ctx, session.ID, 3)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)

	assert.Equal(t, 1, result.Session.Iteration)
	assert.Len(t, result.Session.Shown, 3)
	for _, sc := range result.Items {
		assert.Contains(t, result.Session.Shown, sc.Item.ID)
		assert.GreaterOrEqual(t, sc.Score, 0.0)
		assert.LessOrEqual(t, sc.Score, 1.0)
		assert.NotEmpty(t, sc.Components)
		assert.NotEmpty(t, sc.Justification)
	}

	// shown events landed in the interaction history
	history, err := f.interactions.History(ctx, 1, session.CreatedAt.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Len(t, history, 3)
	for _, ev := range history {
		assert.Equal(t, domain.InteractionShown, ev.EventType)
	}
}

func TestNextRoundAdvancesIterations(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{MealIntent: "lunch"})
	require.NoError(t, err)

	first, err := f.svc.NextRound(ctx, session.ID, 2)
	require.NoError(t, err)
	second, err := f.svc.NextRound(ctx, session.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Session.Iteration)
	assert.Equal(t, 2, second.Session.Iteration)
	// shown list accumulates without duplicates
	assert.GreaterOrEqual(t, len(second.Session.Shown), len(first.Session.Shown))
}

func TestDebugRoundHasNoSideEffects(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{MealIntent: "dinner"})
	require.NoError(t, err)

	result, err := f.svc.DebugRound(ctx, session.ID, 3)
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)

	stored, err := f.sessions.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Iteration)
	assert.Empty(t, stored.Shown)
	assert.Empty(t, f.interactions.events)
}

func TestNextRoundSessionExclusions(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{
		MealIntent: "dinner",
		Excluded:   []uint64{1, 2},
	})
	require.NoError(t, err)

	result, err := f.svc.NextRound(ctx, session.ID, 5)
	require.NoError(t, err)
	for _, sc := range result.Items {
		assert.NotEqual(t, uint64(1), sc.Item.ID)
		assert.NotEqual(t, uint64(2), sc.Item.ID)
	}
}

func TestNextRoundNoSafeItems(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{
		MealIntent: "dinner",
		Excluded:   []uint64{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)

	_, err = f.svc.NextRound(ctx, session.ID, 3)
	require.ErrorIs(t, err, domain.ErrNoSafeItems)
}

func TestNextRoundUnknownSession(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.NextRound(context.Background(), "no-such-session", 3)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestTerminalSessionRefusesRounds(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{MealIntent: "dinner"})
	require.NoError(t, err)

	closed, err := f.svc.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, closed.Status)

	_, err = f.svc.NextRound(ctx, session.ID, 3)
	require.ErrorIs(t, err, domain.ErrSessionTerminal)

	// terminal states are absorbing
	_, err = f.svc.CompleteSession(ctx, session.ID)
	require.ErrorIs(t, err, domain.ErrSessionTerminal)
	_, err = f.svc.AbandonSession(ctx, session.ID)
	require.ErrorIs(t, err, domain.ErrSessionTerminal)
}

func TestAbandonSession(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{MealIntent: "snack"})
	require.NoError(t, err)

	closed, err := f.svc.AbandonSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionAbandoned, closed.Status)
}

func TestNextRoundSmallPoolFallsBackToTopK(t *testing.T) {
	// two items, k=5: the diversity pass is skipped for plain top-k
	f := newServiceFixture(
		domain.CandidateItem{ID: 1, Features: map[string]float64{"sweet": 0.9}},
		domain.CandidateItem{ID: 2, Features: map[string]float64{"salty": 0.8}},
	)
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{MealIntent: "dinner"})
	require.NoError(t, err)

	result, err := f.svc.NextRound(ctx, session.ID, 5)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
}

func TestNextRoundRespectsBudget(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	session, err := f.svc.StartSession(ctx, 1, domain.SessionRequest{
		MealIntent: "dinner",
		Budget:     10,
	})
	require.NoError(t, err)

	result, err := f.svc.NextRound(ctx, session.ID, 5)
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	for _, sc := range result.Items {
		assert.LessOrEqual(t, sc.Item.Price, 10.0)
	}
}

func TestRetrieveCandidates(t *testing.T) {
	f := newServiceFixture()

	items, err := f.svc.RetrieveCandidates(context.Background(), 1, 3, HardFilters{})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestComposeMealThroughService(t *testing.T) {
	f := newServiceFixture()

	result, err := f.svc.ComposeMeal(context.Background(), 1, 100, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Compositions)

	for _, comp := range result.Compositions {
		require.Len(t, comp.Items, 3)
		assert.LessOrEqual(t, comp.TotalPrice, 100*DefaultConfig().BudgetTolerance)
	}
}

func TestComposeMealWithAcceptedItem(t *testing.T) {
	f := newServiceFixture()

	result, err := f.svc.ComposeMeal(context.Background(), 1, 0, map[string]uint64{
		domain.CourseMain: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Compositions)
	for _, comp := range result.Compositions {
		assert.Equal(t, uint64(2), comp.Items[domain.CourseMain].ID)
	}
}

func TestComposeMealUnknownAcceptedItem(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.ComposeMeal(context.Background(), 1, 0, map[string]uint64{
		domain.CourseMain: 999,
	})
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestDislikeDropsItemInRetrievalRanking(t *testing.T) {
	hotpot := domain.CandidateItem{ID: 1, Features: map[string]float64{"spicy": 0.95, "sweet": 0.1}}
	mildA := domain.CandidateItem{ID: 2, Features: map[string]float64{"sweet": 0.9, "spicy": 0.05}}
	mildB := domain.CandidateItem{ID: 3, Features: map[string]float64{"sweet": 0.85, "spicy": 0.02}}
	f := newServiceFixture(hotpot, mildA, mildB)
	ctx := context.Background()

	// the uninformed profile ranks the intense dish first
	before, err := f.svc.RetrieveCandidates(ctx, 1, 3, HardFilters{})
	require.NoError(t, err)
	require.Len(t, before, 3)
	assert.Equal(t, uint64(1), before[0].ID)

	for i := 0; i < 5; i++ {
		_, err := f.svc.ApplyFeedback(ctx, domain.FeedbackEvent{
			UserID:    1,
			ItemID:    1,
			EventType: domain.FeedbackDislike,
		})
		require.NoError(t, err)
	}

	// the shifted profile now ranks it below both milder dishes
	after, err := f.svc.RetrieveCandidates(ctx, 1, 3, HardFilters{})
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, uint64(2), after[0].ID)
	assert.Equal(t, uint64(1), after[2].ID)
}

func TestFeedbackLoopShiftsRecommendations(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	// heavy positive signal on the spiciest dish
	for i := 0; i < 10; i++ {
		_, err := f.svc.ApplyFeedback(ctx, domain.FeedbackEvent{
			UserID:    1,
			ItemID:    2,
			EventType: domain.FeedbackLike,
		})
		require.NoError(t, err)
	}

	profile, err := f.profiles.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Greater(t, profile.Axes["spicy"].Mean(), 0.7)
	assert.Equal(t, 10, profile.FeedbackCount)
}
