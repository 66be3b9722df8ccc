package service

import (
	"context"
	"testing"

	"github.com/runnerstay/booking-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_CreditAndDebit(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "ana", 100)
	ctx := context.Background()

	entry, err := s.ledger.Credit(ctx, EntryInput{
		UserID: user.ID, Amount: 40, Type: models.TxBookingEarning, Description: "test credit",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, entry.Amount)
	assert.Equal(t, 140, s.balance(t, user.ID))

	entry, err = s.ledger.Debit(ctx, EntryInput{
		UserID: user.ID, Amount: 90, Type: models.TxBookingPayment, Description: "test debit",
	})
	require.NoError(t, err)
	assert.Equal(t, -90, entry.Amount)
	assert.Equal(t, 50, s.balance(t, user.ID))

	s.requireConserved(t, user.ID)
}

func TestLedger_DebitInsufficient(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "ana", 50)
	ctx := context.Background()

	_, err := s.ledger.Debit(ctx, EntryInput{
		UserID: user.ID, Amount: 60, Type: models.TxBookingPayment,
	})
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	// Nothing moved, nothing was recorded.
	assert.Equal(t, 50, s.balance(t, user.ID))
	history, err := s.ledger.History(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1) // only the signup grant
	s.requireConserved(t, user.ID)
}

func TestLedger_PenaltyMayGoNegative(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "host", 30)
	ctx := context.Background()

	_, err := s.ledger.Debit(ctx, EntryInput{
		UserID: user.ID, Amount: 100, Type: models.TxBookingRefund,
		Description: "cancellation penalty", AllowNegative: true,
	})
	require.NoError(t, err)
	assert.Equal(t, -70, s.balance(t, user.ID))
	s.requireConserved(t, user.ID)
}

func TestLedger_InvalidAmount(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "ana", 50)
	ctx := context.Background()

	_, err := s.ledger.Credit(ctx, EntryInput{UserID: user.ID, Amount: 0, Type: models.TxBookingEarning})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = s.ledger.Debit(ctx, EntryInput{UserID: user.ID, Amount: -5, Type: models.TxBookingPayment})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestLedger_UnknownUser(t *testing.T) {
	s := newStack(t)
	_, err := s.ledger.Credit(context.Background(), EntryInput{UserID: 9999, Amount: 10, Type: models.TxBookingEarning})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLedger_Transfer(t *testing.T) {
	s := newStack(t)
	guest := s.createUser(t, "guest", 100)
	host := s.createUser(t, "host", 0)
	ctx := context.Background()

	err := s.ledger.Transfer(ctx, TransferInput{
		FromID:      guest.ID,
		ToID:        host.ID,
		Amount:      60,
		FromType:    models.TxBookingPayment,
		ToType:      models.TxBookingEarning,
		Description: "stay payment",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, s.balance(t, guest.ID))
	assert.Equal(t, 60, s.balance(t, host.ID))
	s.requireConserved(t, guest.ID)
	s.requireConserved(t, host.ID)
}

func TestLedger_TransferRollsBackWhenCreditFails(t *testing.T) {
	s := newStack(t)
	guest := s.createUser(t, "guest", 100)
	ctx := context.Background()

	// Receiver does not exist: the debit must not survive alone.
	err := s.ledger.Transfer(ctx, TransferInput{
		FromID:   guest.ID,
		ToID:     9999,
		Amount:   60,
		FromType: models.TxBookingPayment,
		ToType:   models.TxBookingEarning,
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 100, s.balance(t, guest.ID))
	s.requireConserved(t, guest.ID)
}

func TestLedger_TransferInsufficient(t *testing.T) {
	s := newStack(t)
	guest := s.createUser(t, "guest", 10)
	host := s.createUser(t, "host", 0)

	err := s.ledger.Transfer(context.Background(), TransferInput{
		FromID: guest.ID, ToID: host.ID, Amount: 60,
		FromType: models.TxBookingPayment, ToType: models.TxBookingEarning,
	})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 10, s.balance(t, guest.ID))
	assert.Equal(t, 0, s.balance(t, host.ID))
}

func TestLedger_History(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "ana", 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.ledger.Credit(ctx, EntryInput{UserID: user.ID, Amount: 10, Type: models.TxBookingEarning})
		require.NoError(t, err)
	}

	history, err := s.ledger.History(ctx, user.ID, 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	// Newest first.
	assert.Greater(t, history[0].ID, history[1].ID)
}

func TestLedger_ZeroOut(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "ana", 80)
	ctx := context.Background()

	forfeited, err := s.ledger.ZeroOut(ctx, user.ID, "subscription canceled")
	require.NoError(t, err)
	assert.Equal(t, 80, forfeited)
	assert.Equal(t, 0, s.balance(t, user.ID))
	s.requireConserved(t, user.ID)

	// Second call is a no-op.
	forfeited, err = s.ledger.ZeroOut(ctx, user.ID, "subscription canceled")
	require.NoError(t, err)
	assert.Equal(t, 0, forfeited)
}

func TestLedger_IntegrityViolationDeactivatesUser(t *testing.T) {
	s := newStack(t)
	user := s.createUser(t, "ana", 100)
	ctx := context.Background()

	// Corrupt the balance behind the ledger's back.
	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("points_balance", 123).Error)

	err := s.ledger.VerifyIntegrity(ctx, user.ID)
	assert.ErrorIs(t, err, ErrLedgerIntegrity)

	var reloaded models.User
	require.NoError(t, s.db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.IsActive)

	var logs []models.ActivationLog
	require.NoError(t, s.db.Where("user_id = ?", user.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Reason, "integrity")
}
