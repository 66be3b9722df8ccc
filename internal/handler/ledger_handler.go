package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/service"
)

const defaultHistoryLimit = 50

type LedgerHandler struct {
	ledger service.LedgerService
}

func NewLedgerHandler(ledger service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func (h *LedgerHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/users/:id/balance", h.GetBalance)
	e.GET("/api/v1/users/:id/transactions", h.GetHistory)
}

func (h *LedgerHandler) GetBalance(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return err
	}

	balance, err := h.ledger.Balance(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.BalanceResponse{UserID: userID, Balance: balance})
}

func (h *LedgerHandler) GetHistory(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return err
	}

	limit := defaultHistoryLimit
	if l := c.QueryParam("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.ledger.History(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.TransactionResponse, len(entries))
	for i, entry := range entries {
		resp[i] = dto.ToTransactionResponse(&entry)
	}
	return c.JSON(http.StatusOK, resp)
}
