package wizard

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/caselog/caselog/internal/domain/casefile"
	"github.com/caselog/caselog/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/wizard/sessions", h.StartSession)
	api.GET("/wizard/sessions/:id", h.GetSession)
	api.PUT("/wizard/sessions/:id", h.UpdateForm)
	api.POST("/wizard/sessions/:id/validate", h.ValidateStep)
	api.POST("/wizard/sessions/:id/advance", h.Advance)
	api.POST("/wizard/sessions/:id/retreat", h.Retreat)
	api.POST("/wizard/sessions/:id/jump", h.JumpToStep)
	api.POST("/wizard/sessions/:id/submit", h.Submit)
}

func (h *Handler) StartSession(c echo.Context) error {
	sess, err := h.svc.StartSession(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.GetSession(auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) UpdateForm(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var form FormData
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.UpdateForm(auth.UserIDFromContext(c.Request().Context()), id, form)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

type stepRequest struct {
	Step string `json:"step"`
}

func (h *Handler) ValidateStep(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.ValidateStep(auth.UserIDFromContext(c.Request().Context()), id, req.Step)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return c.JSON(http.StatusUnprocessableEntity, sess)
		}
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Advance(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	sess, outcome, err := h.svc.Advance(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return c.JSON(http.StatusUnprocessableEntity, sess)
		}
		return mapError(err)
	}
	if outcome != nil {
		return c.JSON(http.StatusCreated, outcome)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Retreat(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	sess, err := h.svc.Retreat(auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) JumpToStep(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.JumpToStep(auth.UserIDFromContext(c.Request().Context()), id, req.Step)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Submit(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	caseID, err := h.svc.Submit(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), id)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return c.JSON(http.StatusUnprocessableEntity, vErr)
		}
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, SubmitOutcome{CaseID: caseID})
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, casefile.ErrAuthenticationRequired):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSubmitInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownStep):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, casefile.ErrInvalidSubmission):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
