package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/runnerstay/booking-service/config"
	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrHostNotFound      = errors.New("host not found")
	ErrStaleBookingState = errors.New("booking is no longer in the expected state")
	ErrRaceUnavailable   = errors.New("race is not open for booking")
	ErrUserInactive      = errors.New("account is not active")
	ErrNotAllowed        = errors.New("user may not act on this booking")
	ErrOwnProperty       = errors.New("guests cannot book their own property")
)

type CreateBookingInput struct {
	GuestID  uint
	RaceID   uint
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

type BookingService interface {
	Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	Accept(ctx context.Context, bookingID, hostID uint) (*models.Booking, error)
	Reject(ctx context.Context, bookingID, hostID uint) (*models.Booking, error)
	CancelByGuest(ctx context.Context, bookingID, guestID uint, reason string) (*models.Booking, error)
	CancelByHost(ctx context.Context, bookingID, hostID uint, reason string) (*models.Booking, error)
	CancelByPlatform(ctx context.Context, bookingID uint, reason string) error
	Get(ctx context.Context, id uint) (*models.Booking, error)
	ListByGuest(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error)
	ListByHost(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error)

	// Scheduler-driven sweeps. Each returns how many bookings moved.
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
	AutoConfirmSweep(ctx context.Context, now time.Time) (int, error)
	AutoCompleteSweep(ctx context.Context, now time.Time) (int, error)
}

type bookingService struct {
	bookings     repository.BookingRepository
	users        repository.UserRepository
	races        repository.RaceRepository
	ledger       LedgerService
	cost         CostService
	availability AvailabilityService
	publisher    EventPublisher
	cfg          *config.Config
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	races repository.RaceRepository,
	ledger LedgerService,
	cost CostService,
	availability AvailabilityService,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookings:     bookings,
		users:        users,
		races:        races,
		ledger:       ledger,
		cost:         cost,
		availability: availability,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// Create prices the stay and persists a pending request. The guest's
// balance is only checked here, not debited; points move when the host
// accepts, against whatever the balance is at that moment.
func (s *bookingService) Create(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if _, err := s.cost.Nights(in.CheckIn, in.CheckOut); err != nil {
		return nil, err
	}

	guest, err := s.users.FindByID(ctx, in.GuestID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !guest.IsActive {
		return nil, ErrUserInactive
	}

	race, err := s.races.FindByID(ctx, in.RaceID)
	if err != nil {
		return nil, ErrRaceNotFound
	}
	if !race.Available || !race.Active {
		return nil, ErrRaceUnavailable
	}
	property, err := s.races.FindProperty(ctx, race.PropertyID)
	if err != nil {
		return nil, ErrPropertyNotFound
	}
	if _, err := s.users.FindByID(ctx, property.HostID); err != nil {
		return nil, ErrHostNotFound
	}
	if property.HostID == in.GuestID {
		return nil, ErrOwnProperty
	}

	available, err := s.availability.IsAvailable(ctx, property.ID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrAvailabilityConflict
	}

	cost, err := s.cost.CalculateBookingCost(ctx, in.RaceID, in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if guest.PointsBalance < cost {
		return nil, ErrInsufficientPoints
	}

	booking := &models.Booking{
		RaceID:     race.ID,
		PropertyID: property.ID,
		HostID:     property.HostID,
		GuestID:    in.GuestID,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Guests:     in.Guests,
		PointsCost: cost,
		Status:     models.StatusPending,
		RespondBy:  time.Now().Add(s.cfg.HostResponseDeadline),
	}
	if err := s.bookings.Create(ctx, s.bookings.GetDB(), booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.publish("booking.requested", booking)
	return booking, nil
}

// Accept flips pending to accepted and settles the points in the same
// transaction: guest debit, host credit, dates reserved, race closed. If
// any step fails nothing applies and the booking stays pending.
func (s *bookingService) Accept(ctx context.Context, bookingID, hostID uint) (*models.Booking, error) {
	var booking *models.Booking
	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		booking, err = s.bookings.FindByIDTx(ctx, tx, bookingID)
		if err != nil {
			return ErrBookingNotFound
		}
		if booking.HostID != hostID {
			return ErrNotAllowed
		}
		if time.Now().After(booking.RespondBy) {
			// Past deadline; the expiry sweep may not have seen it yet
			// but accepting is no longer allowed.
			return ErrStaleBookingState
		}

		channelID := uuid.NewString()
		applied, err := s.bookings.TransitionStatus(ctx, tx, bookingID,
			models.StatusPending, models.StatusAccepted,
			map[string]any{"channel_id": channelID})
		if err != nil {
			return err
		}
		if !applied {
			return ErrStaleBookingState
		}

		if err := s.ledger.TransferTx(ctx, tx, TransferInput{
			FromID:      booking.GuestID,
			ToID:        booking.HostID,
			Amount:      booking.PointsCost,
			FromType:    models.TxBookingPayment,
			ToType:      models.TxBookingEarning,
			Description: fmt.Sprintf("booking #%d stay payment", booking.ID),
			BookingID:   &booking.ID,
		}); err != nil {
			return err
		}

		if err := s.availability.ReserveTx(ctx, tx, booking.PropertyID, booking.CheckIn, booking.CheckOut, booking.ID); err != nil {
			return err
		}
		if err := s.races.SetAvailable(ctx, tx, booking.RaceID, false); err != nil {
			return err
		}

		booking.Status = models.StatusAccepted
		booking.ChannelID = channelID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish("booking.accepted", booking)
	return booking, nil
}

// Reject is ledger-free: no debit ever happened while pending.
func (s *bookingService) Reject(ctx context.Context, bookingID, hostID uint) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.HostID != hostID {
		return nil, ErrNotAllowed
	}

	applied, err := s.bookings.TransitionStatus(ctx, s.bookings.GetDB(), bookingID,
		models.StatusPending, models.StatusRejected, nil)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrStaleBookingState
	}

	booking.Status = models.StatusRejected
	s.publish("booking.rejected", booking)
	return booking, nil
}

// CancelByGuest refunds per the property's cancellation policy tier. The
// refunded share comes back out of the host's balance, which may go
// negative; the host keeps the rest.
func (s *bookingService) CancelByGuest(ctx context.Context, bookingID, guestID uint, reason string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.GuestID != guestID {
		return nil, ErrNotAllowed
	}

	refund := s.guestRefundAmount(ctx, booking)
	if err := s.cancel(ctx, booking, models.CancelledByGuest, reason, refund, refund); err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelByHost penalizes the host for the full original cost (or the
// configured floor when the cost is unknown) and makes the guest whole.
func (s *bookingService) CancelByHost(ctx context.Context, bookingID, hostID uint, reason string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.HostID != hostID {
		return nil, ErrNotAllowed
	}

	penalty := booking.PointsCost
	if penalty <= 0 {
		penalty = s.cfg.HostPenaltyFloor
	}
	if err := s.cancel(ctx, booking, models.CancelledByHost, reason, booking.PointsCost, penalty); err != nil {
		return nil, err
	}
	return booking, nil
}

// CancelByPlatform unwinds a booking during a subscription cancellation
// cascade: full refund of whatever was paid, no penalty beyond it.
func (s *bookingService) CancelByPlatform(ctx context.Context, bookingID uint, reason string) error {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return ErrBookingNotFound
	}
	return s.cancel(ctx, booking, models.CancelledByPlatform, reason, booking.PointsCost, booking.PointsCost)
}

// cancel is the shared accepted/confirmed → cancelled transition.
// refundToGuest and debitFromHost may differ (partial guest refunds) and
// are both zero for pending bookings, where no points ever moved.
func (s *bookingService) cancel(ctx context.Context, booking *models.Booking, by models.CancelledBy, reason string, refundToGuest, debitFromHost int) error {
	from := booking.Status
	switch from {
	case models.StatusPending:
		// Nothing settled yet; cancelling is ledger-free like a reject.
		refundToGuest, debitFromHost = 0, 0
	case models.StatusAccepted, models.StatusConfirmed:
	default:
		return ErrStaleBookingState
	}

	now := time.Now()
	err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.bookings.TransitionStatus(ctx, tx, booking.ID, from, models.StatusCancelled, map[string]any{
			"cancelled_by":      by,
			"cancelled_at":      now,
			"cancel_reason":     reason,
			"messaging_blocked": true,
		})
		if err != nil {
			return err
		}
		if !applied {
			return ErrStaleBookingState
		}

		if debitFromHost > 0 {
			if _, err := s.ledger.DebitTx(ctx, tx, EntryInput{
				UserID:        booking.HostID,
				Amount:        debitFromHost,
				Type:          models.TxBookingRefund,
				Description:   fmt.Sprintf("booking #%d cancelled by %s", booking.ID, by),
				BookingID:     &booking.ID,
				AllowNegative: true,
			}); err != nil {
				return err
			}
		}
		if refundToGuest > 0 {
			if _, err := s.ledger.CreditTx(ctx, tx, EntryInput{
				UserID:      booking.GuestID,
				Amount:      refundToGuest,
				Type:        models.TxBookingRefund,
				Description: fmt.Sprintf("booking #%d refund", booking.ID),
				BookingID:   &booking.ID,
			}); err != nil {
				return err
			}
		}

		if from != models.StatusPending {
			if err := s.availability.ReleaseTx(ctx, tx, booking.ID); err != nil {
				return err
			}
			if err := s.races.SetAvailable(ctx, tx, booking.RaceID, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	booking.Status = models.StatusCancelled
	booking.CancelledBy = &by
	booking.CancelledAt = &now
	booking.CancelReason = reason
	booking.MessagingBlocked = true
	s.publish("booking.cancelled", booking)
	return nil
}

// guestRefundAmount applies the property's policy tier percent, read from
// configuration rather than hardcoded per tier. Far enough before check-in
// every tier refunds in full.
func (s *bookingService) guestRefundAmount(ctx context.Context, booking *models.Booking) int {
	if time.Until(booking.CheckIn) >= s.cfg.FullRefundCutoff {
		return booking.PointsCost
	}
	percent := s.cfg.RefundPercentFlexible
	if property, err := s.races.FindProperty(ctx, booking.PropertyID); err == nil {
		switch property.CancellationPolicy {
		case models.PolicyModerate:
			percent = s.cfg.RefundPercentModerate
		case models.PolicyStrict:
			percent = s.cfg.RefundPercentStrict
		}
	}
	return booking.PointsCost * percent / 100
}

func (s *bookingService) Get(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) ListByGuest(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return s.bookings.FindByGuest(ctx, guestID, status)
}

func (s *bookingService) ListByHost(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return s.bookings.FindByHost(ctx, hostID, status)
}

// ExpireSweep moves pending bookings past their response deadline to
// expired, an implicit rejection with no ledger movement. Expiry is only
// observed here, on the scheduler tick, never in real time.
func (s *bookingService) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.bookings.FindPendingExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, b := range candidates {
		applied, err := s.bookings.TransitionStatus(ctx, s.bookings.GetDB(), b.ID,
			models.StatusPending, models.StatusExpired, nil)
		if err != nil {
			log.Printf("[BookingService] expire booking %d: %v", b.ID, err)
			continue
		}
		if applied {
			moved++
			b.Status = models.StatusExpired
			s.publish("booking.expired", &b)
		}
	}
	return moved, nil
}

// AutoConfirmSweep moves accepted bookings to confirmed once check-in
// arrives. No points move; both parties just get the check-in notice.
func (s *bookingService) AutoConfirmSweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.bookings.FindAcceptedDueForCheckIn(ctx, now)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, b := range candidates {
		applied, err := s.bookings.TransitionStatus(ctx, s.bookings.GetDB(), b.ID,
			models.StatusAccepted, models.StatusConfirmed, nil)
		if err != nil {
			log.Printf("[BookingService] auto-confirm booking %d: %v", b.ID, err)
			continue
		}
		if applied {
			moved++
			b.Status = models.StatusConfirmed
			s.publish("booking.confirmed", &b)
		}
	}
	return moved, nil
}

// AutoCompleteSweep closes out confirmed stays past check-out and credits
// the host the hosting reward, separate from the stay payment transferred
// at acceptance.
func (s *bookingService) AutoCompleteSweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.bookings.FindConfirmedDueForCheckOut(ctx, now)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, b := range candidates {
		booking := b
		err := s.bookings.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			applied, err := s.bookings.TransitionStatus(ctx, tx, booking.ID,
				models.StatusConfirmed, models.StatusCompleted, nil)
			if err != nil {
				return err
			}
			if !applied {
				return ErrStaleBookingState
			}
			reward := booking.Nights() * s.cfg.HostingRewardPerNight
			if reward > 0 {
				if _, err := s.ledger.CreditTx(ctx, tx, EntryInput{
					UserID:      booking.HostID,
					Amount:      reward,
					Type:        models.TxBookingEarning,
					Description: fmt.Sprintf("booking #%d hosting reward (%d nights)", booking.ID, booking.Nights()),
					BookingID:   &booking.ID,
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("[BookingService] auto-complete booking %d: %v", booking.ID, err)
			continue
		}
		moved++
		booking.Status = models.StatusCompleted
		s.publish("booking.completed", &booking)
		s.publish("review.prompt", map[string]any{
			"booking_id": booking.ID,
			"guest_id":   booking.GuestID,
			"host_id":    booking.HostID,
		})
	}
	return moved, nil
}

func (s *bookingService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		log.Printf("[BookingService] publish %s failed: %v", routingKey, err)
	}
}
