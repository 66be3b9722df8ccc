package models

import "time"

type TransactionType string

const (
	TxBookingPayment    TransactionType = "booking_payment"
	TxBookingEarning    TransactionType = "booking_earning"
	TxBookingRefund     TransactionType = "booking_refund"
	TxSubscriptionBonus TransactionType = "subscription_bonus"
)

// PointsTransaction is append-only. Rows are never updated or deleted;
// corrections are made with a compensating entry of the opposite sign.
// At any point sum(amount) per user must equal User.PointsBalance.
type PointsTransaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	Amount      int             `gorm:"not null" json:"amount"`
	Type        TransactionType `gorm:"type:varchar(30);not null" json:"type"`
	Description string          `json:"description"`
	BookingID   *uint           `gorm:"index" json:"booking_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
