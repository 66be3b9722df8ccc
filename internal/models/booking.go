package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusExpired   BookingStatus = "expired"
)

// Terminal reports whether no further transition can leave this status.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

type CancelledBy string

const (
	CancelledByGuest    CancelledBy = "guest"
	CancelledByHost     CancelledBy = "host"
	CancelledByPlatform CancelledBy = "platform"
)

// Booking is a guest's request to stay with a host for a race.
// PointsCost is frozen at creation; later rate-table changes never
// reprice an existing booking.
type Booking struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	RaceID     uint          `gorm:"not null;index" json:"race_id"`
	PropertyID uint          `gorm:"not null;index" json:"property_id"`
	HostID     uint          `gorm:"not null;index" json:"host_id"`
	GuestID    uint          `gorm:"not null;index" json:"guest_id"`
	CheckIn    time.Time     `gorm:"not null" json:"check_in"`
	CheckOut   time.Time     `gorm:"not null" json:"check_out"`
	Guests     int           `gorm:"not null;default:1" json:"guests"`
	PointsCost int           `gorm:"not null" json:"points_cost"`
	Status     BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RespondBy  time.Time     `gorm:"not null" json:"respond_by"`

	CancelledBy  *CancelledBy `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`
	CancelledAt  *time.Time   `json:"cancelled_at,omitempty"`
	CancelReason string       `json:"cancel_reason,omitempty"`

	// ChannelID is assigned when the host accepts and a conversation is
	// opened between guest and host; MessagingBlocked shuts it after a
	// cancellation.
	ChannelID        string `gorm:"type:varchar(36)" json:"channel_id,omitempty"`
	MessagingBlocked bool   `gorm:"not null;default:false" json:"messaging_blocked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Nights returns the stay length in whole nights, rounding partial days up.
func (b *Booking) Nights() int {
	d := b.CheckOut.Sub(b.CheckIn)
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		nights++
	}
	return nights
}
