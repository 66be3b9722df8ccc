package database

import (
	"log"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ActivationLog{},
		&models.PointsTransaction{},
		&models.Property{},
		&models.Race{},
		&models.Booking{},
		&models.AvailabilityEntry{},
		&models.Subscription{},
		&models.BillingEvent{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: one live booking per guest+race; cancelled,
	// rejected and expired rows do not block a retry.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_live
		ON bookings (race_id, guest_id)
		WHERE status IN ('pending', 'accepted', 'confirmed')
	`)

	return db
}
