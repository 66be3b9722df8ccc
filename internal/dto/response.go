package dto

import (
	"time"

	"github.com/runnerstay/booking-service/internal/models"
)

type BookingResponse struct {
	ID               uint                 `json:"id"`
	RaceID           uint                 `json:"race_id"`
	PropertyID       uint                 `json:"property_id"`
	HostID           uint                 `json:"host_id"`
	GuestID          uint                 `json:"guest_id"`
	CheckIn          time.Time            `json:"check_in"`
	CheckOut         time.Time            `json:"check_out"`
	Guests           int                  `json:"guests"`
	PointsCost       int                  `json:"points_cost"`
	Status           models.BookingStatus `json:"status"`
	RespondBy        time.Time            `json:"respond_by"`
	ChannelID        string               `json:"channel_id,omitempty"`
	MessagingBlocked bool                 `json:"messaging_blocked"`
	CancelReason     string               `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

type BalanceResponse struct {
	UserID  uint `json:"user_id"`
	Balance int  `json:"balance"`
}

type TransactionResponse struct {
	ID          uint                   `json:"id"`
	Amount      int                    `json:"amount"`
	Type        models.TransactionType `json:"type"`
	Description string                 `json:"description,omitempty"`
	BookingID   *uint                  `json:"booking_id,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

type AvailabilityEntryResponse struct {
	Date      time.Time                 `json:"date"`
	Status    models.AvailabilityStatus `json:"status"`
	BookingID *uint                     `json:"booking_id,omitempty"`
	Note      string                    `json:"note,omitempty"`
}

type SubscriptionResponse struct {
	UserID              uint                      `json:"user_id"`
	ExternalID          string                    `json:"external_id"`
	PlanType            string                    `json:"plan_type"`
	Status              models.SubscriptionStatus `json:"status"`
	PeriodStart         time.Time                 `json:"period_start"`
	PeriodEnd           time.Time                 `json:"period_end"`
	CancelAtPeriodEnd   bool                      `json:"cancel_at_period_end"`
	EffectiveCancelDate *time.Time                `json:"effective_cancel_date,omitempty"`
}

type RaceResponse struct {
	ID         uint      `json:"id"`
	PropertyID uint      `json:"property_id"`
	Name       string    `json:"name"`
	Province   string    `json:"province"`
	StartDate  time.Time `json:"start_date"`
	Available  bool      `json:"available"`
	Active     bool      `json:"active"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		RaceID:           b.RaceID,
		PropertyID:       b.PropertyID,
		HostID:           b.HostID,
		GuestID:          b.GuestID,
		CheckIn:          b.CheckIn,
		CheckOut:         b.CheckOut,
		Guests:           b.Guests,
		PointsCost:       b.PointsCost,
		Status:           b.Status,
		RespondBy:        b.RespondBy,
		ChannelID:        b.ChannelID,
		MessagingBlocked: b.MessagingBlocked,
		CancelReason:     b.CancelReason,
		CreatedAt:        b.CreatedAt,
	}
}

func ToTransactionResponse(t *models.PointsTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Type:        t.Type,
		Description: t.Description,
		BookingID:   t.BookingID,
		CreatedAt:   t.CreatedAt,
	}
}

func ToRaceResponse(r *models.Race) RaceResponse {
	return RaceResponse{
		ID:         r.ID,
		PropertyID: r.PropertyID,
		Name:       r.Name,
		Province:   r.Province,
		StartDate:  r.StartDate,
		Available:  r.Available,
		Active:     r.Active,
	}
}

func ToSubscriptionResponse(s *models.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		UserID:              s.UserID,
		ExternalID:          s.ExternalID,
		PlanType:            s.PlanType,
		Status:              s.Status,
		PeriodStart:         s.PeriodStart,
		PeriodEnd:           s.PeriodEnd,
		CancelAtPeriodEnd:   s.CancelAtPeriodEnd,
		EffectiveCancelDate: s.EffectiveCancelDate,
	}
}
