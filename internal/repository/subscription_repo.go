package repository

import (
	"context"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error
	FindByUserID(ctx context.Context, userID uint) (*models.Subscription, error)
	FindByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.Subscription, error)
	RecordEvent(ctx context.Context, tx *gorm.DB, event *models.BillingEvent) (bool, error)
	GetDB() *gorm.DB
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetDB() *gorm.DB {
	return r.db
}

// Upsert keeps exactly one subscription row per user, updated in place from
// whatever the latest webhook said.
func (r *subscriptionRepository) Upsert(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	if sub.ID != 0 {
		return tx.WithContext(ctx).Save(sub).Error
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_id", "plan_type", "status", "period_start", "period_end",
			"cancel_at_period_end", "effective_cancel_date",
			"last_payment_id", "last_payment_at", "updated_at",
		}),
	}).Create(sub).Error
}

func (r *subscriptionRepository) FindByUserID(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := tx.WithContext(ctx).Where("external_id = ?", externalID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// RecordEvent inserts the processed-webhook marker. It returns false when an
// identical event was already recorded, which is how the handler detects a
// replay before applying any mutation.
func (r *subscriptionRepository) RecordEvent(ctx context.Context, tx *gorm.DB, event *models.BillingEvent) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.BillingEvent{}).
		Where("external_id = ? AND kind = ? AND event_id = ?", event.ExternalID, event.Kind, event.EventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := tx.WithContext(ctx).Create(event).Error; err != nil {
		return false, err
	}
	return true, nil
}
