package models

import "time"

// User is both host and guest; every account can offer a stay and book one.
// PointsBalance is only ever written through the ledger service's
// conditional updates, never assigned directly.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	PointsBalance int       `gorm:"not null;default:0" json:"points_balance"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ActivationLog records every is_active change with who/why, since the flag
// is written by the subscription handler and admin tooling alike.
type ActivationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Active    bool      `gorm:"not null" json:"active"`
	Reason    string    `gorm:"not null" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
