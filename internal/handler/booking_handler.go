package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	bookings := e.Group("/api/v1/bookings")
	bookings.POST("", h.CreateBooking)
	bookings.GET("/:id", h.GetBooking)
	bookings.POST("/:id/accept", h.AcceptBooking)
	bookings.POST("/:id/reject", h.RejectBooking)
	bookings.POST("/:id/cancel", h.CancelBooking)

	e.GET("/api/v1/users/:id/bookings", h.ListUserBookings)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.GuestID == 0 || req.RaceID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "guest_id and race_id are required")
	}
	if req.Guests <= 0 {
		req.Guests = 1
	}

	booking, err := h.svc.Create(c.Request().Context(), service.CreateBookingInput{
		GuestID:  req.GuestID,
		RaceID:   req.RaceID,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Guests:   req.Guests,
	})
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) AcceptBooking(c echo.Context) error {
	bookingID, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.HostActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.HostID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "host_id is required")
	}

	booking, err := h.svc.Accept(c.Request().Context(), bookingID, req.HostID)
	if err != nil {
		return mapBookingError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) RejectBooking(c echo.Context) error {
	bookingID, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.HostActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.HostID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "host_id is required")
	}

	booking, err := h.svc.Reject(c.Request().Context(), bookingID, req.HostID)
	if err != nil {
		return mapBookingError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.CancelBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	var booking *models.Booking
	switch req.By {
	case "guest":
		booking, err = h.svc.CancelByGuest(c.Request().Context(), bookingID, req.UserID, req.Reason)
	case "host":
		booking, err = h.svc.CancelByHost(c.Request().Context(), bookingID, req.UserID, req.Reason)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "by must be 'guest' or 'host'")
	}
	if err != nil {
		return mapBookingError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	bookingID, err := paramID(c)
	if err != nil {
		return err
	}

	booking, err := h.svc.Get(c.Request().Context(), bookingID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListUserBookings(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return err
	}

	var status *models.BookingStatus
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		status = &bs
	}

	var bookings []models.Booking
	switch c.QueryParam("role") {
	case "host":
		bookings, err = h.svc.ListByHost(c.Request().Context(), userID, status)
	default:
		bookings, err = h.svc.ListByGuest(c.Request().Context(), userID, status)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func mapBookingError(err error) error {
	switch {
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrRaceNotFound),
		errors.Is(err, service.ErrPropertyNotFound),
		errors.Is(err, service.ErrHostNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrOwnProperty):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInsufficientPoints):
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrStaleBookingState),
		errors.Is(err, service.ErrAvailabilityConflict),
		errors.Is(err, service.ErrRaceUnavailable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotAllowed),
		errors.Is(err, service.ErrUserInactive):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
