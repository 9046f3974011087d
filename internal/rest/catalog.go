package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"plateful/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	CatalogHandler struct {
		catalogService CatalogService
	}

	CatalogService interface {
		GetAllItems(ctx context.Context) ([]domain.CandidateItem, error)
		GetItemByID(ctx context.Context, id uint64) (*domain.CandidateItem, error)
	}
)

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: svc}
}

// GET /api/v1/items
func (h *CatalogHandler) GetAllItems(c echo.Context) error {
	items, err := h.catalogService.GetAllItems(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

// GET /api/v1/items/:id
func (h *CatalogHandler) GetItemByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid item id"})
	}

	item, err := h.catalogService.GetItemByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(item))
}
