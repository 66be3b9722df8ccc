package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription mirrors the payment provider's view of a user's membership.
// One row per user, upserted from webhooks; kept forever as history.
type Subscription struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	UserID              uint               `gorm:"uniqueIndex;not null" json:"user_id"`
	ExternalID          string             `gorm:"uniqueIndex;not null" json:"external_id"`
	PlanType            string             `gorm:"not null" json:"plan_type"`
	Status              SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	PeriodStart         time.Time          `json:"period_start"`
	PeriodEnd           time.Time          `json:"period_end"`
	CancelAtPeriodEnd   bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	EffectiveCancelDate *time.Time         `json:"effective_cancel_date,omitempty"`
	LastPaymentID       string             `json:"last_payment_id,omitempty"`
	LastPaymentAt       *time.Time         `json:"last_payment_at,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// BillingEvent records every webhook already applied. The unique index over
// (external_id, kind, event_id) is the idempotency gate: a second insert of
// the same event fails and the handler treats it as a replay.
type BillingEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ExternalID string         `gorm:"not null;uniqueIndex:idx_billing_event" json:"external_id"`
	Kind       string         `gorm:"not null;uniqueIndex:idx_billing_event" json:"kind"`
	EventID    string         `gorm:"not null;uniqueIndex:idx_billing_event" json:"event_id"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}
