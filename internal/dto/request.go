package dto

import "time"

type CreateBookingRequest struct {
	GuestID  uint      `json:"guest_id"`
	RaceID   uint      `json:"race_id"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Guests   int       `json:"guests"`
}

type HostActionRequest struct {
	HostID uint `json:"host_id"`
}

type CancelBookingRequest struct {
	UserID uint   `json:"user_id"`
	By     string `json:"by"` // "guest" or "host"
	Reason string `json:"reason"`
}

type BlockDatesRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Note string    `json:"note"`
}

type ActivationRequest struct {
	Active bool   `json:"active"`
	Reason string `json:"reason"`
}
