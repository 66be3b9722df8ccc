package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/service"
)

type WebhookHandler struct {
	subs service.SubscriptionService
}

func NewWebhookHandler(subs service.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{subs: subs}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/webhooks/billing", h.HandleBillingWebhook)
	e.GET("/api/v1/users/:id/subscription", h.GetSubscription)
}

// HandleBillingWebhook keeps the raw body: the decoded event drives the
// reconciliation and the raw payload is stored with the processed-event
// marker for audit.
func (h *WebhookHandler) HandleBillingWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	var event service.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event payload")
	}
	if event.Kind == "" || event.SubscriptionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "kind and subscription_id are required")
	}

	err = h.subs.HandleEvent(c.Request().Context(), event, body)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{"status": "applied"})
	case errors.Is(err, service.ErrEventReplay):
		// Providers redeliver; an already-applied event is success.
		return c.JSON(http.StatusOK, map[string]string{"status": "already_applied"})
	case errors.Is(err, service.ErrUnknownEventKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubscriptionNotFound), errors.Is(err, service.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *WebhookHandler) GetSubscription(c echo.Context) error {
	userID, err := paramID(c)
	if err != nil {
		return err
	}

	sub, err := h.subs.Get(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
	}
	return c.JSON(http.StatusOK, dto.ToSubscriptionResponse(sub))
}
