package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/service"
)

type RaceHandler struct {
	svc service.RaceService
}

func NewRaceHandler(svc service.RaceService) *RaceHandler {
	return &RaceHandler{svc: svc}
}

func (h *RaceHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/races/:id", h.GetRace)
}

func (h *RaceHandler) GetRace(c echo.Context) error {
	raceID, err := paramID(c)
	if err != nil {
		return err
	}

	race, err := h.svc.Get(c.Request().Context(), raceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "race not found")
	}
	return c.JSON(http.StatusOK, dto.ToRaceResponse(race))
}
