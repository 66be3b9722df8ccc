package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrLedgerIntegrity    = errors.New("ledger integrity violation")
)

// EntryInput describes one ledger movement. Amount is always given
// positive; Debit negates it. AllowNegative is the documented penalty
// exception: host cancellation penalties may push a balance below zero.
type EntryInput struct {
	UserID        uint
	Amount        int
	Type          models.TransactionType
	Description   string
	BookingID     *uint
	AllowNegative bool
}

// TransferInput moves Amount from one user to the other as an atomic pair.
type TransferInput struct {
	FromID      uint
	ToID        uint
	Amount      int
	FromType    models.TransactionType
	ToType      models.TransactionType
	Description string
	BookingID   *uint
}

// LedgerService is the only writer of User.PointsBalance. Every mutation is
// a conditional balance UPDATE plus exactly one appended transaction row,
// committed together; no reader can see one without the other.
type LedgerService interface {
	Credit(ctx context.Context, in EntryInput) (*models.PointsTransaction, error)
	Debit(ctx context.Context, in EntryInput) (*models.PointsTransaction, error)
	Transfer(ctx context.Context, in TransferInput) error

	// Tx variants join a caller-owned transaction so booking transitions
	// can commit their status change and ledger movement as one unit.
	CreditTx(ctx context.Context, tx *gorm.DB, in EntryInput) (*models.PointsTransaction, error)
	DebitTx(ctx context.Context, tx *gorm.DB, in EntryInput) (*models.PointsTransaction, error)
	TransferTx(ctx context.Context, tx *gorm.DB, in TransferInput) error

	ZeroOut(ctx context.Context, userID uint, description string) (int, error)
	Balance(ctx context.Context, userID uint) (int, error)
	History(ctx context.Context, userID uint, limit int) ([]models.PointsTransaction, error)
	VerifyIntegrity(ctx context.Context, userID uint) error
}

type ledgerService struct {
	users    repository.UserRepository
	txns     repository.TransactionRepository
	accounts AccountService
}

func NewLedgerService(users repository.UserRepository, txns repository.TransactionRepository, accounts AccountService) LedgerService {
	return &ledgerService{users: users, txns: txns, accounts: accounts}
}

func (s *ledgerService) Credit(ctx context.Context, in EntryInput) (*models.PointsTransaction, error) {
	var entry *models.PointsTransaction
	err := s.users.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.CreditTx(ctx, tx, in)
		return err
	})
	return entry, err
}

func (s *ledgerService) Debit(ctx context.Context, in EntryInput) (*models.PointsTransaction, error) {
	var entry *models.PointsTransaction
	err := s.users.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.DebitTx(ctx, tx, in)
		return err
	})
	return entry, err
}

func (s *ledgerService) Transfer(ctx context.Context, in TransferInput) error {
	return s.users.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.TransferTx(ctx, tx, in)
	})
}

func (s *ledgerService) CreditTx(ctx context.Context, tx *gorm.DB, in EntryInput) (*models.PointsTransaction, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, tx, in.UserID, in.Amount, in.Type, in.Description, in.BookingID, true)
}

func (s *ledgerService) DebitTx(ctx context.Context, tx *gorm.DB, in EntryInput) (*models.PointsTransaction, error) {
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.apply(ctx, tx, in.UserID, -in.Amount, in.Type, in.Description, in.BookingID, in.AllowNegative)
}

// TransferTx debits the sender and credits the receiver inside the given
// transaction. Either both rows and both balances land, or neither does.
func (s *ledgerService) TransferTx(ctx context.Context, tx *gorm.DB, in TransferInput) error {
	if _, err := s.DebitTx(ctx, tx, EntryInput{
		UserID:      in.FromID,
		Amount:      in.Amount,
		Type:        in.FromType,
		Description: in.Description,
		BookingID:   in.BookingID,
	}); err != nil {
		return err
	}
	if _, err := s.CreditTx(ctx, tx, EntryInput{
		UserID:      in.ToID,
		Amount:      in.Amount,
		Type:        in.ToType,
		Description: in.Description,
		BookingID:   in.BookingID,
	}); err != nil {
		return err
	}
	return nil
}

func (s *ledgerService) apply(ctx context.Context, tx *gorm.DB, userID uint, delta int, txType models.TransactionType, description string, bookingID *uint, allowNegative bool) (*models.PointsTransaction, error) {
	applied, err := s.users.AdjustBalance(ctx, tx, userID, delta, allowNegative)
	if err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}
	if !applied {
		// Zero rows affected is either a missing user or a tripped
		// balance guard; one extra read tells them apart.
		if _, err := s.users.FindByIDTx(ctx, tx, userID); err != nil {
			return nil, ErrUserNotFound
		}
		return nil, ErrInsufficientPoints
	}

	entry := &models.PointsTransaction{
		UserID:      userID,
		Amount:      delta,
		Type:        txType,
		Description: description,
		BookingID:   bookingID,
	}
	if err := s.txns.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}
	return entry, nil
}

// ZeroOut writes one compensating entry bringing the balance to exactly
// zero, used when a cancelled subscription forfeits remaining points.
// Returns the forfeited amount (negative if a deficit was forgiven).
func (s *ledgerService) ZeroOut(ctx context.Context, userID uint, description string) (int, error) {
	var forfeited int
	err := s.users.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.FindByIDTx(ctx, tx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		if user.PointsBalance == 0 {
			return nil
		}
		forfeited = user.PointsBalance
		if _, err := s.apply(ctx, tx, userID, -user.PointsBalance, models.TxSubscriptionBonus, description, nil, true); err != nil {
			return err
		}
		return nil
	})
	return forfeited, err
}

func (s *ledgerService) Balance(ctx context.Context, userID uint) (int, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return 0, ErrUserNotFound
	}
	return user.PointsBalance, nil
}

func (s *ledgerService) History(ctx context.Context, userID uint, limit int) ([]models.PointsTransaction, error) {
	return s.txns.ListByUser(ctx, userID, limit)
}

// VerifyIntegrity checks that the balance equals the transaction sum. A
// mismatch should be unreachable; when detected the account is deactivated
// so no further writes land until someone reviews it.
func (s *ledgerService) VerifyIntegrity(ctx context.Context, userID uint) error {
	var mismatch bool
	err := s.users.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.FindByIDTx(ctx, tx, userID)
		if err != nil {
			return ErrUserNotFound
		}
		sum, err := s.txns.SumByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		mismatch = sum != user.PointsBalance
		return nil
	})
	if err != nil {
		return err
	}
	if mismatch {
		if err := s.accounts.SetActivation(ctx, userID, false, "ledger integrity violation, pending manual review"); err != nil {
			return fmt.Errorf("deactivate after integrity failure: %w", err)
		}
		return ErrLedgerIntegrity
	}
	return nil
}
