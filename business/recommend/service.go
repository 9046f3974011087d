package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plateful/domain"
	"plateful/pkg/logger"
)

// ---- Repository interfaces ----

type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*domain.SessionState, error)
	SaveSession(ctx context.Context, session *domain.SessionState) error
}

type UserPrefsRepository interface {
	GetPrefs(ctx context.Context, userID uint) (domain.UserPrefs, error)
}

// ---- Service ----

// Service is the session orchestrator: it sequences exclusions,
// retrieval, scoring, and diversification per recommendation round and
// tracks session state across rounds.
type Service struct {
	defaultCfg   Config
	catalog      CatalogRepository
	profiles     ProfileRepository
	interactions InteractionRepository
	sessions     SessionRepository
	userPrefs    UserPrefsRepository
	penalties    PenaltyRepository
	cfgRepo      ConfigRepository

	index   VectorIndex
	sim     SimilarityLookup
	sampler *Sampler
	learner *Learner
	guard   *guardedScorer
}

func NewService(
	defaultCfg Config,
	catalog CatalogRepository,
	profiles ProfileRepository,
	interactions InteractionRepository,
	sessions SessionRepository,
	userPrefs UserPrefsRepository,
	penalties PenaltyRepository,
	cfgRepo ConfigRepository,
	index VectorIndex,
	sim SimilarityLookup,
	sampler *Sampler,
	learner *Learner,
	learned LearnedScorer,
	learnedTimeout time.Duration,
) *Service {
	return &Service{
		defaultCfg:   defaultCfg,
		catalog:      catalog,
		profiles:     profiles,
		interactions: interactions,
		sessions:     sessions,
		userPrefs:    userPrefs,
		penalties:    penalties,
		cfgRepo:      cfgRepo,
		index:        index,
		sim:          sim,
		sampler:      sampler,
		learner:      learner,
		guard:        newGuardedScorer(learned, learnedTimeout),
	}
}

// RoundResult is one recommendation round's output.
type RoundResult struct {
	Session *domain.SessionState     `json:"session"`
	Items   []domain.ScoredCandidate `json:"items"`
}

func (s *Service) StartSession(
	ctx context.Context,
	userID uint,
	req domain.SessionRequest,
) (*domain.SessionState, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	now := time.Now()
	session := &domain.SessionState{
		ID:         uuid.NewString(),
		UserID:     userID,
		MealIntent: req.MealIntent,
		Budget:     req.Budget,
		Occasion:   req.Occasion,
		Mood:       req.Mood,
		Excluded:   req.Excluded,
		Status:     domain.SessionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// NextRound runs one full recommendation round for the session and
// commits its side effects (shown history, iteration) only after the
// round completes.
func (s *Service) NextRound(ctx context.Context, sessionID string, k int) (*RoundResult, error) {
	result, session, err := s.runRound(ctx, sessionID, k)
	if err != nil {
		return nil, err
	}

	// Commit: record every returned item as shown, bump the iteration.
	now := time.Now()
	shownEvents := make([]domain.InteractionEvent, 0, len(result))
	for _, sc := range result {
		if !session.WasShown(sc.Item.ID) {
			session.Shown = append(session.Shown, sc.Item.ID)
		}
		shownEvents = append(shownEvents, domain.InteractionEvent{
			UserID:    session.UserID,
			ItemID:    sc.Item.ID,
			EventType: domain.InteractionShown,
			CreatedAt: now,
		})
	}
	session.Iteration++
	session.UpdatedAt = now

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if len(shownEvents) > 0 {
		if err := s.interactions.Append(ctx, shownEvents); err != nil {
			return nil, fmt.Errorf("failed to append shown events: %w", err)
		}
	}

	return &RoundResult{Session: session, Items: result}, nil
}

// DebugRound runs the same pipeline without committing any side
// effects, for score-component inspection.
func (s *Service) DebugRound(ctx context.Context, sessionID string, k int) (*RoundResult, error) {
	result, session, err := s.runRound(ctx, sessionID, k)
	if err != nil {
		return nil, err
	}
	return &RoundResult{Session: session, Items: result}, nil
}

func (s *Service) runRound(
	ctx context.Context,
	sessionID string,
	k int,
) ([]domain.ScoredCandidate, *domain.SessionState, error) {

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context error: %w", err)
	}
	if k <= 0 {
		k = 10
	}

	cfg := s.loadConfig(ctx)
	now := time.Now()

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Terminal() {
		return nil, nil, domain.ErrSessionTerminal
	}

	profile, err := s.loadProfile(ctx, session.UserID, cfg)
	if err != nil {
		return nil, nil, err
	}

	// 1) recompute exclusions from fresh history
	historyWindow := cfg.DislikeWindowDays
	if cfg.RepeatPenaltyWindowDays > historyWindow {
		historyWindow = cfg.RepeatPenaltyWindowDays
	}
	history, err := s.interactions.History(ctx, session.UserID, now.AddDate(0, 0, -historyWindow))
	if err != nil {
		return nil, nil, fmt.Errorf("load interaction history: %w", err)
	}

	exclusions := ComputeExclusions(history, now, cfg)
	for _, id := range session.Excluded {
		exclusions[id] = ExcludedPermanent
	}

	// 2) retrieve candidates under hard filters
	prefs := s.loadPrefs(ctx, session.UserID)
	timeOfDay := daypart(now)

	queryVector := BlendedQueryVector(profile, s.sampler, cfg)

	retriever := NewRetriever(s.index, s.catalog, cfg)
	candidates, err := retriever.Retrieve(ctx, queryVector, k, HardFilters{
		Allergens:     prefs.Allergens,
		DietaryTags:   prefs.DietaryTags,
		BudgetCeiling: session.Budget,
		TimeOfDay:     timeOfDay,
		Exclude:       exclusions,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, domain.ErrNoSafeItems
	}

	// 3) score under the round context
	affinities, err := s.penalties.GetAffinities(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load ingredient affinities: %w", err)
	}

	sctx := ScoringContext{
		MealIntent:           session.MealIntent,
		TimeOfDay:            timeOfDay,
		Budget:               session.Budget,
		Mood:                 session.Mood,
		Occasion:             session.Occasion,
		Iteration:            session.Iteration,
		ShownCounts:          shownCounts(session),
		RepeatPenalties:      repeatPenalties(history, now, cfg),
		IngredientAffinities: affinities,
	}

	scorer := &Scorer{cfg: cfg, learned: s.guard}
	scored := scorer.ScoreAndRank(ctx, candidates, profile, queryVector, sctx)
	if len(scored) == 0 {
		return nil, nil, domain.ErrNoSafeItems
	}

	// 4) diversify, or deterministic top-k when the pool is small
	var selected []domain.ScoredCandidate
	if len(scored) <= k {
		selected = TopK(scored, k)
	} else {
		selected = Diversify(scored, k, cfg.DiversityWeight, DiversityConstraints{
			MaxPerCuisine:     cfg.MaxPerCuisine,
			MaxPerRestaurant:  cfg.MaxPerRestaurant,
			MaxPerPriceBucket: cfg.MaxPerPriceBucket,
			PriceBucketSize:   cfg.PriceBucketSize,
		}, s.sim, cfg.Axes)
	}

	logger.Debug("recommend_round",
		"trace_id", TraceIDFromContext(ctx),
		"session_id", session.ID,
		"user_id", session.UserID,
		"iteration", session.Iteration,
		"candidate_count", len(candidates),
		"selected_count", len(selected),
	)

	return selected, session, nil
}

// ApplyFeedback delegates to the learner; exposed here so callers hold
// a single engine handle.
func (s *Service) ApplyFeedback(ctx context.Context, event domain.FeedbackEvent) (*domain.TasteProfile, error) {
	return s.learner.ApplyFeedback(ctx, event)
}

// RetrieveCandidates is the plain retrieval operation without session
// bookkeeping.
func (s *Service) RetrieveCandidates(
	ctx context.Context,
	userID uint,
	k int,
	filters HardFilters,
) ([]domain.CandidateItem, error) {

	cfg := s.loadConfig(ctx)

	profile, err := s.loadProfile(ctx, userID, cfg)
	if err != nil {
		return nil, err
	}

	retriever := NewRetriever(s.index, s.catalog, cfg)
	items, err := retriever.Retrieve(ctx, profile.MeanVector(), k, filters)
	if err != nil {
		return nil, err
	}
	// the retriever hands back the inflated pool; this operation
	// promises at most k
	if len(items) > k {
		items = items[:k]
	}
	return items, nil
}

// ComposeMeal retrieves a broad candidate pool for the user and
// composes multi-course meals within the budget. accepted maps course
// label to an already-chosen item id; those slots are held fixed.
func (s *Service) ComposeMeal(
	ctx context.Context,
	userID uint,
	budget float64,
	accepted map[string]uint64,
) (domain.CompositionResult, error) {

	if err := ctx.Err(); err != nil {
		return domain.CompositionResult{}, fmt.Errorf("context error: %w", err)
	}

	cfg := s.loadConfig(ctx)

	profile, err := s.loadProfile(ctx, userID, cfg)
	if err != nil {
		return domain.CompositionResult{}, err
	}

	prefs := s.loadPrefs(ctx, userID)

	// Pull a generous pool so every course has candidates after
	// filtering; course assignment happens inside the composer.
	poolSize := cfg.TopPerCourse * len(domain.CourseOrder) * 2
	retriever := NewRetriever(s.index, s.catalog, cfg)
	candidates, err := retriever.Retrieve(ctx, profile.MeanVector(), poolSize, HardFilters{
		Allergens:   prefs.Allergens,
		DietaryTags: prefs.DietaryTags,
	})
	if err != nil {
		return domain.CompositionResult{}, err
	}

	acceptedItems := make(map[string]domain.CandidateItem, len(accepted))
	for course, id := range accepted {
		item, err := s.catalog.FindByID(ctx, id)
		if err != nil {
			return domain.CompositionResult{}, fmt.Errorf("resolve accepted %s item %d: %w", course, id, err)
		}
		acceptedItems[course] = item
	}

	return ComposeMeal(candidates, budget, acceptedItems, cfg), nil
}

func (s *Service) CompleteSession(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return s.closeSession(ctx, sessionID, domain.SessionCompleted)
}

func (s *Service) AbandonSession(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return s.closeSession(ctx, sessionID, domain.SessionAbandoned)
}

func (s *Service) closeSession(ctx context.Context, sessionID, status string) (*domain.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Terminal() {
		return nil, domain.ErrSessionTerminal
	}

	session.Status = status
	session.UpdatedAt = time.Now()
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// ---- helpers ----

func (s *Service) loadProfile(ctx context.Context, userID uint, cfg Config) (*domain.TasteProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrProfileNotFound) {
		// cold start: uninformed priors, not persisted until feedback
		return domain.NewTasteProfile(userID, cfg.Axes, nil, cfg.PriorAlpha, cfg.PriorBeta), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (s *Service) loadPrefs(ctx context.Context, userID uint) domain.UserPrefs {
	if s.userPrefs == nil {
		return domain.UserPrefs{}
	}
	prefs, err := s.userPrefs.GetPrefs(ctx, userID)
	if err != nil {
		return domain.UserPrefs{}
	}
	return prefs
}

func shownCounts(session *domain.SessionState) map[uint64]int {
	out := make(map[uint64]int, len(session.Shown))
	for _, id := range session.Shown {
		out[id]++
	}
	return out
}

// repeatPenalties computes the decaying repeat-order penalty: a freshly
// ordered item carries the full weight, fading linearly to zero at the
// window edge.
func repeatPenalties(history []domain.InteractionEvent, now time.Time, cfg Config) map[uint64]float64 {
	window := float64(cfg.RepeatPenaltyWindowDays)
	out := make(map[uint64]float64)
	for _, ev := range history {
		if ev.EventType != domain.InteractionOrdered {
			continue
		}
		ageDays := now.Sub(ev.CreatedAt).Hours() / 24
		if ageDays < 0 || ageDays >= window {
			continue
		}
		penalty := cfg.RepeatPenaltyWeight * (1 - ageDays/window)
		if penalty > out[ev.ItemID] {
			out[ev.ItemID] = penalty
		}
	}
	return out
}

func daypart(t time.Time) string {
	h := t.Hour()
	switch {
	case h < 6:
		return "night"
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}
