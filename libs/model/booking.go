package model

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// BookingStatuses lists every status in display order.
var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled}

// Valid reports enum membership. Any status may follow any other.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

// DefaultDeposit is the pre-booking deposit in rupees.
const DefaultDeposit = 100

type Booking struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customer_name"`
	Phone         string        `json:"phone"`
	Service       string        `json:"service"`
	PreferredDate string        `json:"preferred_date"`
	PreferredTime string        `json:"preferred_time"`
	Notes         string        `json:"notes,omitempty"`
	DepositAmount int           `json:"deposit_amount"`
	DepositPaid   bool          `json:"deposit_paid"`
	Status        BookingStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewBooking is an insert row; the backend assigns id and created_at.
type NewBooking struct {
	CustomerName  string        `json:"customer_name"`
	Phone         string        `json:"phone"`
	Service       string        `json:"service"`
	PreferredDate string        `json:"preferred_date"`
	PreferredTime string        `json:"preferred_time"`
	Notes         string        `json:"notes"`
	DepositAmount int           `json:"deposit_amount"`
	DepositPaid   bool          `json:"deposit_paid"`
	Status        BookingStatus `json:"status"`
}

// Services is the bookable service menu.
var Services = []string{
	"Haircut & Styling",
	"Hair Coloring",
	"Facial Treatment",
	"Bridal Makeup",
	"Party Makeup",
	"Manicure & Pedicure",
	"Threading & Waxing",
	"Hair Spa",
	"Skin Treatment",
	"Mehndi/Henna",
}

// IsKnownService reports whether name is on the service menu.
func IsKnownService(name string) bool {
	for _, s := range Services {
		if s == name {
			return true
		}
	}
	return false
}
