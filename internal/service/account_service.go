package service

import (
	"context"
	"log"

	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
	"gorm.io/gorm"
)

// EventPublisher is the fire-and-forget outbound side. Publish failures are
// logged and swallowed by callers; a committed transition never rolls back
// because a broker was down.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// AccountService is the single path for flipping is_active. The flag is
// shared with admin tooling and the subscription handler, so every change
// goes through here and lands in the activation log with a reason.
type AccountService interface {
	SetActivation(ctx context.Context, userID uint, active bool, reason string) error
	SetActivationTx(ctx context.Context, tx *gorm.DB, userID uint, active bool, reason string) error
}

type accountService struct {
	users     repository.UserRepository
	publisher EventPublisher
}

func NewAccountService(users repository.UserRepository, publisher EventPublisher) AccountService {
	return &accountService{users: users, publisher: publisher}
}

func (s *accountService) SetActivation(ctx context.Context, userID uint, active bool, reason string) error {
	err := s.users.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.SetActivationTx(ctx, tx, userID, active, reason)
	})
	if err != nil {
		return err
	}
	s.publishChange(userID, active, reason)
	return nil
}

func (s *accountService) SetActivationTx(ctx context.Context, tx *gorm.DB, userID uint, active bool, reason string) error {
	if _, err := s.users.FindByIDTx(ctx, tx, userID); err != nil {
		return ErrUserNotFound
	}
	if err := s.users.SetActive(ctx, tx, userID, active); err != nil {
		return err
	}
	return s.users.LogActivation(ctx, tx, &models.ActivationLog{
		UserID: userID,
		Active: active,
		Reason: reason,
	})
}

func (s *accountService) publishChange(userID uint, active bool, reason string) {
	if s.publisher == nil {
		return
	}
	key := "account.deactivated"
	if active {
		key = "account.activated"
	}
	if err := s.publisher.Publish(key, map[string]any{"user_id": userID, "reason": reason}); err != nil {
		log.Printf("[AccountService] publish %s failed: %v", key, err)
	}
}
