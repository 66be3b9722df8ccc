package models

import "time"

type AvailabilityStatus string

const (
	DateAvailable AvailabilityStatus = "available"
	DateReserved  AvailabilityStatus = "reserved"
	DateBlocked   AvailabilityStatus = "blocked"
)

// AvailabilityEntry is one calendar date of one property. Reserved rows are
// owned by the booking referenced in BookingID and only booking transitions
// create or release them; blocked rows are host-set and never touched by
// cancellation logic. Date is stored truncated to midnight UTC.
type AvailabilityEntry struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	PropertyID uint               `gorm:"not null;uniqueIndex:idx_property_date" json:"property_id"`
	Date       time.Time          `gorm:"not null;uniqueIndex:idx_property_date" json:"date"`
	Status     AvailabilityStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	BookingID  *uint              `gorm:"index" json:"booking_id,omitempty"`
	Note       string             `json:"note,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
