package rest

import (
	"context"
	"errors"
	"net/http"

	"plateful/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	SessionHandler struct {
		validate       *validator.Validate
		sessionService SessionService
	}

	SessionService interface {
		StartSession(ctx context.Context, userID uint, req domain.SessionRequest) (*domain.SessionState, error)
		CompleteSession(ctx context.Context, sessionID string) (*domain.SessionState, error)
		AbandonSession(ctx context.Context, sessionID string) (*domain.SessionState, error)
	}

	StartSessionRequest struct {
		MealIntent string   `json:"meal_intent" validate:"required,oneof=breakfast lunch dinner snack"`
		Budget     float64  `json:"budget" validate:"gte=0"`
		Occasion   string   `json:"occasion"`
		Mood       string   `json:"mood"`
		Excluded   []uint64 `json:"excluded"`
	}
)

func NewSessionHandler(svc SessionService) *SessionHandler {
	return &SessionHandler{
		validate:       validator.New(),
		sessionService: svc,
	}
}

// POST /api/v1/sessions
func (h *SessionHandler) Start(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	session, err := h.sessionService.StartSession(c.Request().Context(), userID, domain.SessionRequest{
		MealIntent: req.MealIntent,
		Budget:     req.Budget,
		Occasion:   req.Occasion,
		Mood:       req.Mood,
		Excluded:   req.Excluded,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(session))
}

// POST /api/v1/sessions/:id/complete
func (h *SessionHandler) Complete(c echo.Context) error {
	session, err := h.sessionService.CompleteSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(session))
}

// POST /api/v1/sessions/:id/abandon
func (h *SessionHandler) Abandon(c echo.Context) error {
	session, err := h.sessionService.AbandonSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.sessionError(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(session))
}

func (h *SessionHandler) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	case errors.Is(err, domain.ErrSessionTerminal):
		return c.JSON(http.StatusConflict, ResponseError{Message: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
}
