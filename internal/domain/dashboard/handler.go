package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/caselog/caselog/internal/domain/casefile"
	"github.com/caselog/caselog/internal/platform/auth"
)

// CaseLister supplies the authenticated user's case collection. The case
// service satisfies it.
type CaseLister interface {
	List(ctx context.Context, userID string) ([]*casefile.MedicalCase, error)
}

type Handler struct {
	cases   CaseLister
	deriver *Deriver
}

func NewHandler(cases CaseLister) *Handler {
	return &Handler{cases: cases, deriver: NewDeriver()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard/stats", h.Stats)
}

// Stats returns the derived dashboard metrics for the user's collection,
// filtered by the q and filters query parameters.
func (h *Handler) Stats(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	cases, err := h.cases.List(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, casefile.ErrAuthenticationRequired) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	query := c.QueryParam("q")
	filters := splitFilters(c.QueryParam("filters"))

	return c.JSON(http.StatusOK, h.deriver.Derive(cases, query, filters))
}

func splitFilters(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	filters := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			filters = append(filters, trimmed)
		}
	}
	return filters
}
