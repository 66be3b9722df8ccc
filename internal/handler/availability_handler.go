package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/service"
)

type AvailabilityHandler struct {
	svc service.AvailabilityService
}

func NewAvailabilityHandler(svc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

func (h *AvailabilityHandler) RegisterRoutes(e *echo.Echo) {
	props := e.Group("/api/v1/properties/:id/availability")
	props.GET("", h.GetCalendar)
	props.POST("/block", h.BlockDates)
	props.POST("/unblock", h.UnblockDates)
}

func (h *AvailabilityHandler) GetCalendar(c echo.Context) error {
	propertyID, err := paramID(c)
	if err != nil {
		return err
	}
	from, to, err := rangeParams(c)
	if err != nil {
		return err
	}

	entries, err := h.svc.Calendar(c.Request().Context(), propertyID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.AvailabilityEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = dto.AvailabilityEntryResponse{
			Date:      e.Date,
			Status:    e.Status,
			BookingID: e.BookingID,
			Note:      e.Note,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AvailabilityHandler) BlockDates(c echo.Context) error {
	propertyID, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.BlockDatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.From.Before(req.To) {
		return echo.NewHTTPError(http.StatusBadRequest, "'from' must be before 'to'")
	}

	if err := h.svc.Block(c.Request().Context(), propertyID, req.From, req.To, req.Note); err != nil {
		if errors.Is(err, service.ErrAvailabilityConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AvailabilityHandler) UnblockDates(c echo.Context) error {
	propertyID, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.BlockDatesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !req.From.Before(req.To) {
		return echo.NewHTTPError(http.StatusBadRequest, "'from' must be before 'to'")
	}

	if err := h.svc.Unblock(c.Request().Context(), propertyID, req.From, req.To); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func rangeParams(c echo.Context) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid 'from' date")
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid 'to' date")
	}
	return from, to, nil
}
