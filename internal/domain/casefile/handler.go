package casefile

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caselog/caselog/internal/platform/auth"
	"github.com/caselog/caselog/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/cases", h.ListCases)
	api.GET("/cases/:id", h.GetCase)
	api.POST("/cases", h.CreateCase)
	api.PUT("/cases/:id", h.UpdateCase)
	api.DELETE("/cases/:id", h.DeleteCase)
}

func (h *Handler) ListCases(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	cases, err := h.svc.List(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}

	pg := pagination.FromContext(c)
	total := len(cases)
	start := pg.Offset
	if start > total {
		start = total
	}
	end := start + pg.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cases[start:end], total, pg.Limit, pg.Offset))
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	mc, err := h.svc.GetByID(c.Request().Context(), userID, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, mc)
}

func (h *Handler) CreateCase(c echo.Context) error {
	var sub CaseSubmission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	id, err := h.svc.Create(c.Request().Context(), userID, &sub)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *Handler) UpdateCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var mc MedicalCase
	if err := c.Bind(&mc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	mc.ID = id
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.Update(c.Request().Context(), userID, &mc); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, mc)
}

func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.Delete(c.Request().Context(), userID, id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, ErrCaseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case errors.Is(err, ErrInvalidSubmission):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
