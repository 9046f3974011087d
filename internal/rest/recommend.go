package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"plateful/business/recommend"
	"plateful/domain"
	"plateful/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type (
	RecommendHandler struct {
		validate         *validator.Validate
		recommendService RecommendService
	}

	RecommendService interface {
		NextRound(ctx context.Context, sessionID string, k int) (*recommend.RoundResult, error)
		DebugRound(ctx context.Context, sessionID string, k int) (*recommend.RoundResult, error)
		ApplyFeedback(ctx context.Context, event domain.FeedbackEvent) (*domain.TasteProfile, error)
		ComposeMeal(ctx context.Context, userID uint, budget float64, accepted map[string]uint64) (domain.CompositionResult, error)
	}

	NextRoundQuery struct {
		SessionID string `query:"session_id" validate:"required"`
		N         int    `query:"n"`
	}

	FeedbackRequest struct {
		ItemID     uint64         `json:"item_id" validate:"required"`
		EventType  string         `json:"event_type" validate:"required,oneof=like dislike order skip"`
		OccurredAt *time.Time     `json:"occurred_at"`
		Context    map[string]any `json:"context"`
	}

	ComposeRequest struct {
		Budget   float64           `json:"budget"`
		Accepted map[string]uint64 `json:"accepted"`
	}
)

func NewRecommendHandler(svc RecommendService) *RecommendHandler {
	return &RecommendHandler{
		validate:         validator.New(),
		recommendService: svc,
	}
}

// GET /api/v1/recommendations?session_id=...&n=10
func (h *RecommendHandler) NextRound(c echo.Context) error {
	start := time.Now()
	metrics.RecommendRoundRequests.Inc()

	var q NextRoundQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.N <= 0 {
		q.N = 10
	}

	result, err := h.recommendService.NextRound(c.Request().Context(), q.SessionID, q.N)
	if err != nil {
		return h.roundError(c, err)
	}

	metrics.RecommendRoundLatency.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// GET /api/v1/recommendations/debug?session_id=...&n=10
func (h *RecommendHandler) DebugRound(c echo.Context) error {
	var q NextRoundQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if q.N <= 0 {
		q.N = 10
	}

	result, err := h.recommendService.DebugRound(c.Request().Context(), q.SessionID, q.N)
	if err != nil {
		return h.roundError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// POST /api/v1/recommendations/feedback
func (h *RecommendHandler) Feedback(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	event := domain.FeedbackEvent{
		UserID:    userID,
		ItemID:    req.ItemID,
		EventType: req.EventType,
		Context:   datatypes.JSONMap(req.Context),
	}
	if req.OccurredAt != nil {
		event.OccurredAt = *req.OccurredAt
	}

	profile, err := h.recommendService.ApplyFeedback(c.Request().Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrProfileConflict) {
			// retryable: the client should resubmit
			return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(profile))
}

// POST /api/v1/recommendations/compose
func (h *RecommendHandler) Compose(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	metrics.ComposeMealRequests.Inc()

	var req ComposeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	result, err := h.recommendService.ComposeMeal(c.Request().Context(), userID, req.Budget, req.Accepted)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	// An empty result with a reason is a valid answer, not an error.
	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

func (h *RecommendHandler) roundError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	case errors.Is(err, domain.ErrSessionTerminal):
		return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
	case errors.Is(err, domain.ErrNoSafeItems):
		// explicit empty result, not an exception
		return c.JSON(http.StatusOK, fres.Response.StatusOK(recommend.RoundResult{Items: []domain.ScoredCandidate{}}))
	default:
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
}
