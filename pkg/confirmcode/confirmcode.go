// Package confirmcode generates human-legible confirmation codes.
//
// Codes are drawn from an alphabet that excludes visually ambiguous
// characters (0/O, 1/I) and carry a type prefix so staff can tell an
// appointment from a reservation at a glance. Uniqueness is best-effort;
// callers must enforce it with a unique index and retry on collision.
package confirmcode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// Alphabet omits 0, O, 1 and I.
	Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// DefaultLength is the number of random characters after the prefix.
	DefaultLength = 6

	PrefixAppointment = "A"
	PrefixReservation = "R"
	PrefixOrder       = "O"
)

// PrefixFor maps a booking type to its code prefix. Unknown types get the
// appointment prefix.
func PrefixFor(bookingType string) string {
	switch bookingType {
	case "reservation":
		return PrefixReservation
	case "order":
		return PrefixOrder
	default:
		return PrefixAppointment
	}
}

// Generate returns a code of the form <prefix><length random characters>.
func Generate(prefix string, length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)
	for _, v := range buf {
		b.WriteByte(Alphabet[int(v)%len(Alphabet)])
	}
	return b.String(), nil
}

// GenerateFor returns a default-length code for the given booking type.
func GenerateFor(bookingType string) (string, error) {
	return Generate(PrefixFor(bookingType), DefaultLength)
}
