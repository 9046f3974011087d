package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"plateful/domain"
	"plateful/pkg/logger"
)

// ---- Repository interfaces ----

type ProfileRepository interface {
	// GetProfile returns domain.ErrProfileNotFound for unknown users.
	GetProfile(ctx context.Context, userID uint) (*domain.TasteProfile, error)
	// SaveProfile persists the profile iff the stored version still
	// matches profile.Version, then bumps it. A stale version returns
	// domain.ErrProfileConflict.
	SaveProfile(ctx context.Context, profile *domain.TasteProfile) error
}

type InteractionRepository interface {
	History(ctx context.Context, userID uint, since time.Time) ([]domain.InteractionEvent, error)
	Append(ctx context.Context, events []domain.InteractionEvent) error
}

type FeedbackRepository interface {
	SaveEvent(ctx context.Context, event domain.FeedbackEvent) error
}

// PenaltyRepository persists the per-user ingredient affinity map:
// positive weights for liked ingredients, negative for disliked ones.
type PenaltyRepository interface {
	GetAffinities(ctx context.Context, userID uint) (map[string]float64, error)
	SaveAffinities(ctx context.Context, userID uint, affinities map[string]float64) error
}

// ingredient affinity learning rates; dislikes move twice as hard, in
// line with the Beta-model asymmetry.
const (
	ingredientLikeStep    = 0.1
	ingredientDislikeStep = 0.2
	ingredientWeightCap   = 1.0
)

// Learner applies feedback events: it performs the read-modify-write of
// the persisted profile, updates the ingredient affinity map, and
// appends interaction history. Per-user updates are serialized through
// a keyed mutex; different users proceed fully in parallel.
type Learner struct {
	cfg          Config
	profiles     ProfileRepository
	interactions InteractionRepository
	feedback     FeedbackRepository
	penalties    PenaltyRepository
	catalog      CatalogRepository

	userLocks sync.Map // userID -> *sync.Mutex
}

func NewLearner(
	cfg Config,
	profiles ProfileRepository,
	interactions InteractionRepository,
	feedback FeedbackRepository,
	penalties PenaltyRepository,
	catalog CatalogRepository,
) *Learner {
	return &Learner{
		cfg:          cfg,
		profiles:     profiles,
		interactions: interactions,
		feedback:     feedback,
		penalties:    penalties,
		catalog:      catalog,
	}
}

func (l *Learner) lockUser(userID uint) *sync.Mutex {
	mu, _ := l.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ApplyFeedback processes one feedback event and returns the updated
// profile. A profile write conflict is retried once via re-read-then-
// merge; a second conflict surfaces as domain.ErrProfileConflict so the
// caller can retry. Feedback is never silently dropped.
func (l *Learner) ApplyFeedback(ctx context.Context, event domain.FeedbackEvent) (*domain.TasteProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("event_type is required")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	mu := l.lockUser(event.UserID)
	mu.Lock()
	defer mu.Unlock()

	item, err := l.catalog.FindByID(ctx, event.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load item %d: %w", event.ItemID, err)
	}

	now := time.Now()
	weight := TemporalWeight(event.OccurredAt, now, l.cfg.HalfLifeDays)
	positive := event.Positive()

	tid := TraceIDFromContext(ctx)
	logger.Debug("feedback_apply",
		"trace_id", tid,
		"user_id", event.UserID,
		"item_id", event.ItemID,
		"event_type", event.EventType,
		"temporal_weight", weight,
	)

	profile, err := l.updateProfileWithRetry(ctx, event.UserID, item, positive, weight)
	if err != nil {
		return nil, err
	}

	if event.EventType != domain.FeedbackSkip {
		if err := l.updateIngredientAffinities(ctx, event.UserID, item, positive); err != nil {
			return nil, err
		}
	}

	interaction := domain.InteractionEvent{
		UserID:    event.UserID,
		ItemID:    event.ItemID,
		EventType: interactionTypeFor(event.EventType),
		CreatedAt: event.OccurredAt,
	}
	if err := l.interactions.Append(ctx, []domain.InteractionEvent{interaction}); err != nil {
		return nil, fmt.Errorf("failed to append interaction: %w", err)
	}

	if err := l.feedback.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to save feedback event: %w", err)
	}

	FeedbackEventsTotal.WithLabelValues(event.EventType).Inc()

	return profile, nil
}

func (l *Learner) updateProfileWithRetry(
	ctx context.Context,
	userID uint,
	item domain.CandidateItem,
	positive bool,
	weight float64,
) (*domain.TasteProfile, error) {

	// attempt 0 = first try, attempt 1 = re-read-then-merge retry
	for attempt := 0; attempt < 2; attempt++ {
		profile, err := l.profiles.GetProfile(ctx, userID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			profile = domain.NewTasteProfile(userID, l.cfg.Axes, nil, l.cfg.PriorAlpha, l.cfg.PriorBeta)
		} else if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}

		UpdateProfile(profile, item, positive, weight, l.cfg)

		err = l.profiles.SaveProfile(ctx, profile)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, domain.ErrProfileConflict) {
			return nil, fmt.Errorf("save profile: %w", err)
		}
	}

	return nil, domain.ErrProfileConflict
}

func (l *Learner) updateIngredientAffinities(
	ctx context.Context,
	userID uint,
	item domain.CandidateItem,
	positive bool,
) error {

	if len(item.Ingredients) == 0 {
		return nil
	}

	affinities, err := l.penalties.GetAffinities(ctx, userID)
	if err != nil {
		return fmt.Errorf("load ingredient affinities: %w", err)
	}
	if affinities == nil {
		affinities = make(map[string]float64)
	}

	step := ingredientLikeStep
	if !positive {
		step = -ingredientDislikeStep
	}

	for _, ing := range item.Ingredients {
		affinities[ing] = clampAbs(affinities[ing]+step, ingredientWeightCap)
	}

	if err := l.penalties.SaveAffinities(ctx, userID, affinities); err != nil {
		return fmt.Errorf("save ingredient affinities: %w", err)
	}
	return nil
}

func interactionTypeFor(feedbackType string) string {
	switch feedbackType {
	case domain.FeedbackOrder:
		return domain.InteractionOrdered
	case domain.FeedbackDislike:
		return domain.InteractionDisliked
	default:
		return domain.InteractionRated
	}
}
