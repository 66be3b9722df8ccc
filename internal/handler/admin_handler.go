package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/service"
)

// AdminHandler exposes the activation switch to admin tooling. It goes
// through the same AccountService path as the subscription flows, so every
// change is logged with a reason.
type AdminHandler struct {
	accounts service.AccountService
}

func NewAdminHandler(accounts service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo) {
	e.PUT("/api/v1/admin/users/:id/activation", h.SetActivation)
}

func (h *AdminHandler) SetActivation(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.ActivationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	if err := h.accounts.SetActivation(c.Request().Context(), userID, req.Active, req.Reason); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
