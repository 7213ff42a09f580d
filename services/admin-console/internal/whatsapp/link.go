// Package whatsapp composes wa.me deep links and the parlour's message templates.
package whatsapp

import (
	"fmt"
	"strings"

	"github.com/utiibeauty/parlour/libs/model"
)

const baseURL = "https://wa.me/"

// Digits strips every non-digit from phone, keeping order.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Link builds https://wa.me/<digits>?text=<message>.
func Link(phone, message string) string {
	return baseURL + Digits(phone) + "?text=" + EncodeComponent(message)
}

// EncodeComponent percent-encodes s the way browsers' encodeURIComponent does:
// spaces become %20 and newlines %0A.
func EncodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// BookingRequest is the storefront booking message sent to the parlour.
type BookingRequest struct {
	Name    string
	Phone   string
	Service string
	Date    string
	Time    string
	Notes   string
}

// Message renders the booking request. Empty notes read "None".
func (r BookingRequest) Message() string {
	notes := r.Notes
	if notes == "" {
		notes = "None"
	}
	return fmt.Sprintf(`Hello UTII Beauty Parlour! I want to book an appointment.

Name: %s
Phone: %s
Service: %s
Preferred Date: %s
Preferred Time: %s
Notes: %s

Pre-booking deposit: ₹%d (will be deducted from the final bill)`,
		r.Name, r.Phone, r.Service, r.Date, r.Time, notes, model.DefaultDeposit)
}

// ContactMessage is the admin's opening message to a customer.
func ContactMessage(name string) string {
	return "Hello " + name + "! This is UTII Beauty Parlour regarding your appointment booking."
}
