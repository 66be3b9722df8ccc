package models

import "time"

type CancellationPolicy string

const (
	PolicyFlexible CancellationPolicy = "flexible"
	PolicyModerate CancellationPolicy = "moderate"
	PolicyStrict   CancellationPolicy = "strict"
)

// Property is a host's accommodation offered around a race.
type Property struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	HostID             uint               `gorm:"not null;index" json:"host_id"`
	Name               string             `gorm:"not null" json:"name"`
	Province           string             `gorm:"not null" json:"province"`
	MaxGuests          int                `gorm:"not null;default:1" json:"max_guests"`
	CancellationPolicy CancellationPolicy `gorm:"type:varchar(20);not null;default:'flexible'" json:"cancellation_policy"`
	Active             bool               `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Race ties a property offer to a concrete event. Available is flipped off
// while an accepted booking holds the stay and back on if it is cancelled.
type Race struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"not null;index" json:"property_id"`
	Name       string    `gorm:"not null" json:"name"`
	Province   string    `gorm:"not null" json:"province"`
	StartDate  time.Time `gorm:"not null" json:"start_date"`
	Available  bool      `gorm:"not null;default:true" json:"available"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}
