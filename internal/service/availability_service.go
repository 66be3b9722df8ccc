package service

import (
	"context"
	"errors"
	"time"

	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
	"gorm.io/gorm"
)

var ErrAvailabilityConflict = errors.New("requested dates are not available")

type AvailabilityService interface {
	IsAvailable(ctx context.Context, propertyID uint, checkIn, checkOut time.Time) (bool, error)
	ReserveTx(ctx context.Context, tx *gorm.DB, propertyID uint, checkIn, checkOut time.Time, bookingID uint) error
	ReleaseTx(ctx context.Context, tx *gorm.DB, bookingID uint) error
	Block(ctx context.Context, propertyID uint, from, to time.Time, note string) error
	Unblock(ctx context.Context, propertyID uint, from, to time.Time) error
	Calendar(ctx context.Context, propertyID uint, from, to time.Time) ([]models.AvailabilityEntry, error)
}

type availabilityService struct {
	repo repository.AvailabilityRepository
}

func NewAvailabilityService(repo repository.AvailabilityRepository) AvailabilityService {
	return &availabilityService{repo: repo}
}

func (s *availabilityService) IsAvailable(ctx context.Context, propertyID uint, checkIn, checkOut time.Time) (bool, error) {
	entries, err := s.repo.ListRange(ctx, propertyID, dateOnly(checkIn), dateOnly(checkOut))
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Status != models.DateAvailable {
			return false, nil
		}
	}
	return true, nil
}

// ReserveTx locks every night in [checkIn, checkOut) for the booking.
// Re-reserving a date already held by the same booking is a no-op; a date
// held by anything else is a conflict and the caller's transaction rolls
// back untouched.
func (s *availabilityService) ReserveTx(ctx context.Context, tx *gorm.DB, propertyID uint, checkIn, checkOut time.Time, bookingID uint) error {
	for _, date := range stayDates(checkIn, checkOut) {
		entry, err := s.repo.FindEntry(ctx, tx, propertyID, date)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No row yet: the unique (property_id, date) index turns a
			// concurrent double-insert into an error instead of a
			// silent overwrite.
			createErr := s.repo.CreateEntry(ctx, tx, &models.AvailabilityEntry{
				PropertyID: propertyID,
				Date:       date,
				Status:     models.DateReserved,
				BookingID:  &bookingID,
			})
			if createErr != nil {
				return ErrAvailabilityConflict
			}
			continue
		}
		if err != nil {
			return err
		}

		switch entry.Status {
		case models.DateAvailable:
			id := bookingID
			applied, err := s.repo.TransitionStatus(ctx, tx, entry.ID, models.DateAvailable, models.DateReserved, &id, "")
			if err != nil {
				return err
			}
			if !applied {
				return ErrAvailabilityConflict
			}
		case models.DateReserved:
			if entry.BookingID != nil && *entry.BookingID == bookingID {
				continue
			}
			return ErrAvailabilityConflict
		default:
			return ErrAvailabilityConflict
		}
	}
	return nil
}

func (s *availabilityService) ReleaseTx(ctx context.Context, tx *gorm.DB, bookingID uint) error {
	_, err := s.repo.ReleaseByBooking(ctx, tx, bookingID)
	return err
}

// Block marks host-chosen dates unavailable. Dates already reserved by a
// booking cannot be blocked over.
func (s *availabilityService) Block(ctx context.Context, propertyID uint, from, to time.Time, note string) error {
	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, date := range stayDates(from, to) {
			entry, err := s.repo.FindEntry(ctx, tx, propertyID, date)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := s.repo.CreateEntry(ctx, tx, &models.AvailabilityEntry{
					PropertyID: propertyID,
					Date:       date,
					Status:     models.DateBlocked,
					Note:       note,
				}); err != nil {
					return ErrAvailabilityConflict
				}
				continue
			}
			if err != nil {
				return err
			}
			switch entry.Status {
			case models.DateBlocked:
				continue
			case models.DateAvailable:
				applied, err := s.repo.TransitionStatus(ctx, tx, entry.ID, models.DateAvailable, models.DateBlocked, nil, note)
				if err != nil {
					return err
				}
				if !applied {
					return ErrAvailabilityConflict
				}
			default:
				return ErrAvailabilityConflict
			}
		}
		return nil
	})
}

// Unblock only reopens host-blocked dates; reserved rows belong to their
// booking and are released by cancellation, not here.
func (s *availabilityService) Unblock(ctx context.Context, propertyID uint, from, to time.Time) error {
	return s.repo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, date := range stayDates(from, to) {
			entry, err := s.repo.FindEntry(ctx, tx, propertyID, date)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if entry.Status != models.DateBlocked {
				continue
			}
			if _, err := s.repo.TransitionStatus(ctx, tx, entry.ID, models.DateBlocked, models.DateAvailable, nil, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *availabilityService) Calendar(ctx context.Context, propertyID uint, from, to time.Time) ([]models.AvailabilityEntry, error) {
	return s.repo.ListRange(ctx, propertyID, dateOnly(from), dateOnly(to))
}

// stayDates expands [checkIn, checkOut) into one date per night, truncated
// to midnight UTC. The check-out date itself is never included.
func stayDates(checkIn, checkOut time.Time) []time.Time {
	var dates []time.Time
	for d := dateOnly(checkIn); d.Before(dateOnly(checkOut)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
