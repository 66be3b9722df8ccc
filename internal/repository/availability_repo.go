package repository

import (
	"context"
	"time"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/gorm"
)

type AvailabilityRepository interface {
	FindEntry(ctx context.Context, tx *gorm.DB, propertyID uint, date time.Time) (*models.AvailabilityEntry, error)
	CreateEntry(ctx context.Context, tx *gorm.DB, entry *models.AvailabilityEntry) error
	TransitionStatus(ctx context.Context, tx *gorm.DB, entryID uint, from, to models.AvailabilityStatus, bookingID *uint, note string) (bool, error)
	ReleaseByBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (int64, error)
	ListRange(ctx context.Context, propertyID uint, from, to time.Time) ([]models.AvailabilityEntry, error)
	GetDB() *gorm.DB
}

type availabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *availabilityRepository) FindEntry(ctx context.Context, tx *gorm.DB, propertyID uint, date time.Time) (*models.AvailabilityEntry, error) {
	var entry models.AvailabilityEntry
	err := tx.WithContext(ctx).
		Where("property_id = ? AND date = ?", propertyID, date).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *availabilityRepository) CreateEntry(ctx context.Context, tx *gorm.DB, entry *models.AvailabilityEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

// TransitionStatus flips one calendar date with a status guard, the same
// conditional-update shape bookings use. A lost race shows up as zero rows
// affected, never as a silent overwrite.
func (r *availabilityRepository) TransitionStatus(ctx context.Context, tx *gorm.DB, entryID uint, from, to models.AvailabilityStatus, bookingID *uint, note string) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.AvailabilityEntry{}).
		Where("id = ? AND status = ?", entryID, from).
		Updates(map[string]any{"status": to, "booking_id": bookingID, "note": note})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseByBooking frees every date the booking reserved. Host-set blocked
// rows have no booking_id and are never touched here.
func (r *availabilityRepository) ReleaseByBooking(ctx context.Context, tx *gorm.DB, bookingID uint) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.AvailabilityEntry{}).
		Where("booking_id = ? AND status = ?", bookingID, models.DateReserved).
		Updates(map[string]any{"status": models.DateAvailable, "booking_id": nil})
	return res.RowsAffected, res.Error
}

func (r *availabilityRepository) ListRange(ctx context.Context, propertyID uint, from, to time.Time) ([]models.AvailabilityEntry, error) {
	var entries []models.AvailabilityEntry
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND date >= ? AND date < ?", propertyID, from, to).
		Order("date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
