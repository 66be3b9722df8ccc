package repository

import (
	"context"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/gorm"
)

type RaceRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Race, error)
	FindProperty(ctx context.Context, id uint) (*models.Property, error)
	SetAvailable(ctx context.Context, tx *gorm.DB, raceID uint, available bool) error
	SetRacesActiveByHost(ctx context.Context, tx *gorm.DB, hostID uint, active bool) error
	SetPropertiesActiveByHost(ctx context.Context, tx *gorm.DB, hostID uint, active bool) error
}

type raceRepository struct {
	db *gorm.DB
}

func NewRaceRepository(db *gorm.DB) RaceRepository {
	return &raceRepository{db: db}
}

func (r *raceRepository) FindByID(ctx context.Context, id uint) (*models.Race, error) {
	var race models.Race
	if err := r.db.WithContext(ctx).Preload("Property").First(&race, id).Error; err != nil {
		return nil, err
	}
	return &race, nil
}

func (r *raceRepository) FindProperty(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).First(&property, id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *raceRepository) SetAvailable(ctx context.Context, tx *gorm.DB, raceID uint, available bool) error {
	return tx.WithContext(ctx).
		Model(&models.Race{}).
		Where("id = ?", raceID).
		Update("available", available).Error
}

func (r *raceRepository) SetRacesActiveByHost(ctx context.Context, tx *gorm.DB, hostID uint, active bool) error {
	return tx.WithContext(ctx).
		Model(&models.Race{}).
		Where("property_id IN (?)", tx.Model(&models.Property{}).Select("id").Where("host_id = ?", hostID)).
		Update("active", active).Error
}

func (r *raceRepository) SetPropertiesActiveByHost(ctx context.Context, tx *gorm.DB, hostID uint, active bool) error {
	return tx.WithContext(ctx).
		Model(&models.Property{}).
		Where("host_id = ?", hostID).
		Update("active", active).Error
}
