package repository

import (
	"context"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/gorm"
)

// TransactionRepository only appends and reads. There is deliberately no
// update or delete: the transaction log is the audit trail for every
// balance change.
type TransactionRepository interface {
	Append(ctx context.Context, tx *gorm.DB, entry *models.PointsTransaction) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.PointsTransaction, error)
	SumByUser(ctx context.Context, tx *gorm.DB, userID uint) (int, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Append(ctx context.Context, tx *gorm.DB, entry *models.PointsTransaction) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.PointsTransaction, error) {
	var entries []models.PointsTransaction
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *transactionRepository) SumByUser(ctx context.Context, tx *gorm.DB, userID uint) (int, error) {
	var sum *int
	err := tx.WithContext(ctx).
		Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).
		Select("SUM(amount)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
