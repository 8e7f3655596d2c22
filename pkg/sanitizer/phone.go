package sanitizer

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// supportedRegions are tried in order when a number has no country prefix.
var supportedRegions = []string{"ES", "MX", "US"}

// NormalizePhone converts a phone number to E.164 format.
// Numbers without a leading + are parsed against the supported regions in
// order, first valid parse wins.
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	if strings.HasPrefix(phone, "+") {
		num, err := phonenumbers.Parse(phone, "")
		if err != nil {
			return "", fmt.Errorf("invalid phone number: %w", err)
		}
		if !phonenumbers.IsValidNumber(num) {
			return "", fmt.Errorf("phone number is not valid")
		}
		return phonenumbers.Format(num, phonenumbers.E164), nil
	}

	for _, region := range supportedRegions {
		num, err := phonenumbers.Parse(phone, region)
		if err != nil {
			continue
		}
		if phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164), nil
		}
	}

	return "", fmt.Errorf("phone number is not valid for any supported region")
}

// PhoneKey returns the digits-only form of a phone number, used as the
// customer partition key in persistence. The input should already be
// normalized; invalid characters are dropped rather than rejected.
func PhoneKey(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhoneKey normalizes a raw phone number and returns its digits-only
// key in one step.
func NormalizePhoneKey(phone string) (string, error) {
	e164, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}
	return PhoneKey(e164), nil
}
