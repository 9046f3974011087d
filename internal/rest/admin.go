package rest

import (
	"context"
	"net/http"

	"plateful/business/recommend"
	"plateful/domain"
	"plateful/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AdminHandler struct {
		validate     *validator.Validate
		adminService AdminService
	}

	AdminService interface {
		RebuildIndex(ctx context.Context) error
		RebuildStatus() recommend.RebuildStatus
		GetEngineParams(ctx context.Context) (domain.EngineParams, bool, error)
		UpdateEngineParams(ctx context.Context, params domain.EngineParams) error
	}

	EngineParamsRequest struct {
		LambdaCuisine          float64 `json:"lambda_cuisine" validate:"gte=0,lte=1"`
		LambdaPopularity       float64 `json:"lambda_popularity" validate:"gte=0,lte=1"`
		ExplorationCoefficient float64 `json:"exploration_coefficient" validate:"gte=0,lte=1"`
		DiversityWeight        float64 `json:"diversity_weight" validate:"gte=0,lte=1"`
		BlendMeanWeight        float64 `json:"blend_mean_weight" validate:"gte=0,lte=1"`
		RepeatPenaltyWeight    float64 `json:"repeat_penalty_weight" validate:"gte=0,lte=1"`
		MaxPerCuisine          int     `json:"max_per_cuisine" validate:"gte=0"`
		MaxPerRestaurant       int     `json:"max_per_restaurant" validate:"gte=0"`
		MaxPerPriceBucket      int     `json:"max_per_price_bucket" validate:"gte=0"`
		RecentOrderWindowDays  int     `json:"recent_order_window_days" validate:"gte=0"`
		DislikeWindowDays      int     `json:"dislike_window_days" validate:"gte=0"`
	}
)

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{
		validate:     validator.New(),
		adminService: svc,
	}
}

// POST /api/v1/admin/index/rebuild
//
// The rebuild runs detached from the request; progress is polled via
// the status endpoint.
func (h *AdminHandler) TriggerRebuild(c echo.Context) error {
	go func() {
		if err := h.adminService.RebuildIndex(context.Background()); err != nil {
			logger.Error("background index rebuild failed", "error", err)
		}
	}()

	return c.JSON(http.StatusAccepted, fres.Response.StatusOK(map[string]string{"status": "rebuild started"}))
}

// GET /api/v1/admin/index/status
func (h *AdminHandler) RebuildStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.adminService.RebuildStatus()))
}

// GET /api/v1/admin/engine-params
func (h *AdminHandler) GetEngineParams(c echo.Context) error {
	params, ok, err := h.adminService.GetEngineParams(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no engine params set; defaults in effect"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(params))
}

// PUT /api/v1/admin/engine-params
func (h *AdminHandler) UpdateEngineParams(c echo.Context) error {
	var req EngineParamsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	params := domain.EngineParams{
		LambdaCuisine:          req.LambdaCuisine,
		LambdaPopularity:       req.LambdaPopularity,
		ExplorationCoefficient: req.ExplorationCoefficient,
		DiversityWeight:        req.DiversityWeight,
		BlendMeanWeight:        req.BlendMeanWeight,
		RepeatPenaltyWeight:    req.RepeatPenaltyWeight,
		MaxPerCuisine:          req.MaxPerCuisine,
		MaxPerRestaurant:       req.MaxPerRestaurant,
		MaxPerPriceBucket:      req.MaxPerPriceBucket,
		RecentOrderWindowDays:  req.RecentOrderWindowDays,
		DislikeWindowDays:      req.DislikeWindowDays,
	}
	if err := h.adminService.UpdateEngineParams(c.Request().Context(), params); err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(params))
}
