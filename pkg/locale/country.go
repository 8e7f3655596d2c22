package locale

import (
	"strings"
)

const (
	DefaultTimezone = "UTC"

	LocaleSpanish = "es"
	LocaleEnglish = "en"
)

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code (e.g., "ES", "US")
	Name            string   // Human-readable country name
	PhonePrefixes   []string // Valid phone number prefixes (e.g., ["+34", "34"])
	DefaultTimezone string   // IANA timezone identifier (e.g., "Europe/Madrid")
	DefaultLocale   string   // Spoken locale for the country ("es" or "en")
}

var (
	Countries = map[string]Country{
		"ES": {
			Code:            "ES",
			Name:            "Spain",
			PhonePrefixes:   []string{"+34", "34"},
			DefaultTimezone: "Europe/Madrid",
			DefaultLocale:   LocaleSpanish,
		},
		"MX": {
			Code:            "MX",
			Name:            "Mexico",
			PhonePrefixes:   []string{"+52", "52"},
			DefaultTimezone: "America/Mexico_City",
			DefaultLocale:   LocaleSpanish,
		},
		"US": {
			Code:            "US",
			Name:            "United States",
			PhonePrefixes:   []string{"+1", "1"},
			DefaultTimezone: "America/New_York",
			DefaultLocale:   LocaleEnglish,
		},
	}

	TimeZoneTags = map[string][]string{
		"ES": {"Europe/Madrid", "Atlantic/Canary"},
		"MX": {"America/Mexico_City", "America/Cancun", "America/Tijuana"},
		"US": {"America/New_York", "America/Los_Angeles", "America/Chicago", "US/Eastern", "US/Pacific"},
	}
)

func DetectRegion(tz string) string {
	for region, zones := range TimeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return "ES"
}

// Supported reports whether the given locale is one the voice layer can
// render.
func Supported(loc string) bool {
	return loc == LocaleSpanish || loc == LocaleEnglish
}
