package repository

import (
	"context"
	"time"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByGuest(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error)
	FindByHost(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error)
	FindActiveByGuest(ctx context.Context, guestID uint) ([]models.Booking, error)
	FindPendingExpired(ctx context.Context, now time.Time) ([]models.Booking, error)
	FindAcceptedDueForCheckIn(ctx context.Context, now time.Time) ([]models.Booking, error)
	FindConfirmedDueForCheckOut(ctx context.Context, now time.Time) ([]models.Booking, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.BookingStatus, extra map[string]any) (bool, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	return r.FindByIDTx(ctx, r.db, id)
}

func (r *bookingRepository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByGuest(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return r.findByUserColumn(ctx, "guest_id", guestID, status)
}

func (r *bookingRepository) FindByHost(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return r.findByUserColumn(ctx, "host_id", hostID, status)
}

func (r *bookingRepository) findByUserColumn(ctx context.Context, column string, userID uint, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where(column+" = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindActiveByGuest returns the guest's bookings that are still live
// (pending, accepted or confirmed), used by the subscription cancellation
// cascade.
func (r *bookingRepository) FindActiveByGuest(ctx context.Context, guestID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("guest_id = ? AND status IN ?", guestID,
			[]models.BookingStatus{models.StatusPending, models.StatusAccepted, models.StatusConfirmed}).
		Order("id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindPendingExpired(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND respond_by < ?", models.StatusPending, now).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindAcceptedDueForCheckIn(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND check_in <= ?", models.StatusAccepted, now).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindConfirmedDueForCheckOut(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND check_out <= ?", models.StatusConfirmed, now).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// TransitionStatus performs the state change as a single conditional UPDATE
// guarded by the expected source status. Concurrent transitions on the same
// booking get exactly one winner; losers see zero rows affected.
func (r *bookingRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, id uint, from, to models.BookingStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
