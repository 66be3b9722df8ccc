package repository

import (
	"context"

	"github.com/runnerstay/booking-service/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	AdjustBalance(ctx context.Context, tx *gorm.DB, userID uint, delta int, allowNegative bool) (bool, error)
	SetActive(ctx context.Context, tx *gorm.DB, userID uint, active bool) error
	LogActivation(ctx context.Context, tx *gorm.DB, entry *models.ActivationLog) error
	GetDB() *gorm.DB
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return tx.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.FindByIDTx(ctx, r.db, id)
}

func (r *userRepository) FindByIDTx(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AdjustBalance applies delta as a single conditional UPDATE. When delta is
// negative and allowNegative is false, the guard clause keeps the balance
// from going below zero; the caller learns whether the write applied from
// the returned bool, never from a separate read.
func (r *userRepository) AdjustBalance(ctx context.Context, tx *gorm.DB, userID uint, delta int, allowNegative bool) (bool, error) {
	q := tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID)
	if delta < 0 && !allowNegative {
		q = q.Where("points_balance + ? >= 0", delta)
	}
	res := q.Update("points_balance", gorm.Expr("points_balance + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepository) SetActive(ctx context.Context, tx *gorm.DB, userID uint, active bool) error {
	return tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", active).Error
}

func (r *userRepository) LogActivation(ctx context.Context, tx *gorm.DB, entry *models.ActivationLog) error {
	return tx.WithContext(ctx).Create(entry).Error
}
