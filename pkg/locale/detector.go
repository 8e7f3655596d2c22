package locale

import "strings"

func InferTimezoneFromPhone(phone string) string {
	normalized := strings.TrimSpace(phone)

	for _, country := range Countries {
		for _, prefix := range country.PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				return country.DefaultTimezone
			}
		}
	}

	return DefaultTimezone
}

func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)

	for _, country := range Countries {
		for _, prefix := range country.PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				return &country
			}
		}
	}

	return nil
}

// InferLocaleFromPhone maps a phone number to a spoken locale via the
// country prefix. Unknown prefixes fall back to the provided default.
func InferLocaleFromPhone(phone, fallback string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultLocale
	}
	if Supported(fallback) {
		return fallback
	}
	return LocaleSpanish
}
