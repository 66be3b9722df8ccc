package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/runnerstay/booking-service/config"
	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrEventReplay          = errors.New("billing event already applied")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnknownEventKind     = errors.New("unknown billing event kind")
)

const (
	KindSubscriptionCreated = "subscription.created"
	KindSubscriptionRenewed = "subscription.renewed"
	KindSubscriptionUpdated = "subscription.updated"
	KindSubscriptionDeleted = "subscription.deleted"
	KindPaymentSucceeded    = "payment.succeeded"
)

// WebhookEvent is the provider's payload, decoded leniently: unknown and
// extra fields are ignored, and idempotency keys off subscription id plus
// event kind plus the provider's event id, never off delivery order.
type WebhookEvent struct {
	ID             string           `json:"id"`
	Kind           string           `json:"kind"`
	SubscriptionID string           `json:"subscription_id"`
	Data           WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	UserID            uint                 `json:"user_id,omitempty"`
	PlanType          string               `json:"plan_type,omitempty"`
	PeriodStart       time.Time            `json:"period_start,omitempty"`
	PeriodEnd         time.Time            `json:"period_end,omitempty"`
	CancelAtPeriodEnd bool                 `json:"cancel_at_period_end,omitempty"`
	PaymentID         string               `json:"payment_id,omitempty"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	Registration      *RegistrationPayload `json:"registration,omitempty"`
}

// RegistrationPayload arrives when the subscription was bought during
// sign-up; the account does not exist yet and is provisioned first.
type RegistrationPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// platformCanceller is the narrow slice of BookingService the cancellation
// cascade needs.
type platformCanceller interface {
	CancelByPlatform(ctx context.Context, bookingID uint, reason string) error
}

type SubscriptionService interface {
	HandleEvent(ctx context.Context, event WebhookEvent, raw []byte) error
	Get(ctx context.Context, userID uint) (*models.Subscription, error)
}

type subscriptionService struct {
	subs      repository.SubscriptionRepository
	users     repository.UserRepository
	races     repository.RaceRepository
	bookings  repository.BookingRepository
	ledger    LedgerService
	accounts  AccountService
	canceller platformCanceller
	publisher EventPublisher
	cfg       *config.Config
}

func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	races repository.RaceRepository,
	bookings repository.BookingRepository,
	ledger LedgerService,
	accounts AccountService,
	canceller platformCanceller,
	publisher EventPublisher,
	cfg *config.Config,
) SubscriptionService {
	return &subscriptionService{
		subs:      subs,
		users:     users,
		races:     races,
		bookings:  bookings,
		ledger:    ledger,
		accounts:  accounts,
		canceller: canceller,
		publisher: publisher,
		cfg:       cfg,
	}
}

// HandleEvent applies one webhook. The processed-event marker is written in
// the same transaction as the state change, so a replayed delivery fails
// the marker insert and returns ErrEventReplay without touching anything —
// callers treat that as success.
func (s *subscriptionService) HandleEvent(ctx context.Context, event WebhookEvent, raw []byte) error {
	var reactivatedUser uint
	var deactivatedUser uint

	err := s.subs.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.subs.RecordEvent(ctx, tx, &models.BillingEvent{
			ExternalID: event.SubscriptionID,
			Kind:       event.Kind,
			EventID:    s.eventKey(event),
			Payload:    raw,
		})
		if err != nil {
			return fmt.Errorf("record billing event: %w", err)
		}
		if !applied {
			return ErrEventReplay
		}

		switch event.Kind {
		case KindSubscriptionCreated:
			return s.applyCreated(ctx, tx, event)
		case KindPaymentSucceeded:
			return s.applyPaymentSucceeded(ctx, tx, event)
		case KindSubscriptionRenewed:
			var err error
			reactivatedUser, err = s.applyRenewed(ctx, tx, event)
			return err
		case KindSubscriptionUpdated:
			return s.applyUpdated(ctx, tx, event)
		case KindSubscriptionDeleted:
			var err error
			deactivatedUser, err = s.applyDeleted(ctx, tx, event)
			return err
		default:
			return ErrUnknownEventKind
		}
	})
	if err != nil {
		return err
	}

	if reactivatedUser != 0 {
		s.publish("subscription.renewed", map[string]any{"user_id": reactivatedUser, "subscription_id": event.SubscriptionID})
	}
	if deactivatedUser != 0 {
		// The cascade runs after the subscription state is committed:
		// each booking cancellation is its own atomic unit, and the
		// forfeiture entry is written last so refunds are included.
		s.cancelGuestBookings(ctx, deactivatedUser)
		if _, err := s.ledger.ZeroOut(ctx, deactivatedUser, "points forfeited on subscription cancellation"); err != nil {
			log.Printf("[SubscriptionService] zero out user %d: %v", deactivatedUser, err)
		}
		s.publish("subscription.cancelled", map[string]any{"user_id": deactivatedUser, "subscription_id": event.SubscriptionID})
	}
	return nil
}

func (s *subscriptionService) applyCreated(ctx context.Context, tx *gorm.DB, event WebhookEvent) error {
	userID := event.Data.UserID
	if userID == 0 {
		if event.Data.Registration == nil {
			return ErrUserNotFound
		}
		user := &models.User{
			Name:     event.Data.Registration.Name,
			Email:    event.Data.Registration.Email,
			IsActive: true,
		}
		if err := s.users.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("provision user: %w", err)
		}
		userID = user.ID
	}

	return s.subs.Upsert(ctx, tx, &models.Subscription{
		UserID:      userID,
		ExternalID:  event.SubscriptionID,
		PlanType:    event.Data.PlanType,
		Status:      models.SubscriptionActive,
		PeriodStart: event.Data.PeriodStart,
		PeriodEnd:   event.Data.PeriodEnd,
	})
}

func (s *subscriptionService) applyPaymentSucceeded(ctx context.Context, tx *gorm.DB, event WebhookEvent) error {
	sub, err := s.subs.FindByExternalID(ctx, tx, event.SubscriptionID)
	if err != nil {
		return ErrSubscriptionNotFound
	}
	sub.Status = models.SubscriptionActive
	sub.LastPaymentID = event.Data.PaymentID
	sub.LastPaymentAt = event.Data.PaidAt
	return s.subs.Upsert(ctx, tx, sub)
}

// applyRenewed refreshes the period and, when the account had been
// deactivated, reactivates it together with its properties and races and
// credits the renewal bonus. Returns the user id when a reactivation
// happened so the caller can publish after commit.
func (s *subscriptionService) applyRenewed(ctx context.Context, tx *gorm.DB, event WebhookEvent) (uint, error) {
	sub, err := s.subs.FindByExternalID(ctx, tx, event.SubscriptionID)
	if err != nil {
		return 0, ErrSubscriptionNotFound
	}

	sub.Status = models.SubscriptionActive
	sub.PeriodStart = event.Data.PeriodStart
	sub.PeriodEnd = event.Data.PeriodEnd
	sub.CancelAtPeriodEnd = false
	sub.EffectiveCancelDate = nil
	sub.LastPaymentID = event.Data.PaymentID
	sub.LastPaymentAt = event.Data.PaidAt
	if err := s.subs.Upsert(ctx, tx, sub); err != nil {
		return 0, err
	}

	user, err := s.users.FindByIDTx(ctx, tx, sub.UserID)
	if err != nil {
		return 0, ErrUserNotFound
	}
	if user.IsActive {
		return sub.UserID, nil
	}

	if err := s.accounts.SetActivationTx(ctx, tx, sub.UserID, true, "subscription renewed"); err != nil {
		return 0, err
	}
	if err := s.races.SetPropertiesActiveByHost(ctx, tx, sub.UserID, true); err != nil {
		return 0, err
	}
	if err := s.races.SetRacesActiveByHost(ctx, tx, sub.UserID, true); err != nil {
		return 0, err
	}
	if _, err := s.ledger.CreditTx(ctx, tx, EntryInput{
		UserID:      sub.UserID,
		Amount:      s.cfg.RenewalBonusPoints,
		Type:        models.TxSubscriptionBonus,
		Description: "subscription renewal bonus",
	}); err != nil {
		return 0, err
	}
	return sub.UserID, nil
}

// applyUpdated handles cancel-at-period-end: the account stays active, only
// the pending-cancellation notice with its effective date is persisted.
func (s *subscriptionService) applyUpdated(ctx context.Context, tx *gorm.DB, event WebhookEvent) error {
	sub, err := s.subs.FindByExternalID(ctx, tx, event.SubscriptionID)
	if err != nil {
		return ErrSubscriptionNotFound
	}

	if event.Data.PlanType != "" {
		sub.PlanType = event.Data.PlanType
	}
	if !event.Data.PeriodEnd.IsZero() {
		sub.PeriodEnd = event.Data.PeriodEnd
	}
	if event.Data.CancelAtPeriodEnd {
		sub.CancelAtPeriodEnd = true
		end := sub.PeriodEnd
		sub.EffectiveCancelDate = &end
	} else {
		sub.CancelAtPeriodEnd = false
		sub.EffectiveCancelDate = nil
	}
	return s.subs.Upsert(ctx, tx, sub)
}

// applyDeleted is the immediate cancellation: the paid period is over, so
// the account and its listings go dark inside the transaction. The ledger
// and booking cascade follow after commit.
func (s *subscriptionService) applyDeleted(ctx context.Context, tx *gorm.DB, event WebhookEvent) (uint, error) {
	sub, err := s.subs.FindByExternalID(ctx, tx, event.SubscriptionID)
	if err != nil {
		return 0, ErrSubscriptionNotFound
	}

	sub.Status = models.SubscriptionCanceled
	now := time.Now()
	sub.EffectiveCancelDate = &now
	if err := s.subs.Upsert(ctx, tx, sub); err != nil {
		return 0, err
	}

	if err := s.accounts.SetActivationTx(ctx, tx, sub.UserID, false, "subscription canceled"); err != nil {
		return 0, err
	}
	if err := s.races.SetPropertiesActiveByHost(ctx, tx, sub.UserID, false); err != nil {
		return 0, err
	}
	if err := s.races.SetRacesActiveByHost(ctx, tx, sub.UserID, false); err != nil {
		return 0, err
	}
	return sub.UserID, nil
}

func (s *subscriptionService) cancelGuestBookings(ctx context.Context, userID uint) {
	bookings, err := s.bookings.FindActiveByGuest(ctx, userID)
	if err != nil {
		log.Printf("[SubscriptionService] list bookings for user %d: %v", userID, err)
		return
	}
	for _, b := range bookings {
		if err := s.canceller.CancelByPlatform(ctx, b.ID, "guest subscription canceled"); err != nil && !errors.Is(err, ErrStaleBookingState) {
			log.Printf("[SubscriptionService] cancel booking %d: %v", b.ID, err)
		}
	}
}

func (s *subscriptionService) Get(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.subs.FindByUserID(ctx, userID)
	if err != nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// eventKey falls back to the billing period when the provider did not send
// an event id, so a renewal for a new period is distinct from a replay of
// the previous one.
func (s *subscriptionService) eventKey(event WebhookEvent) string {
	if event.ID != "" {
		return event.ID
	}
	return event.Data.PeriodStart.UTC().Format(time.RFC3339)
}

func (s *subscriptionService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		log.Printf("[SubscriptionService] publish %s failed: %v", routingKey, err)
	}
}
