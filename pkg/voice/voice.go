package voice

import (
	"fmt"
	"strings"
	"time"
)

const (
	LocaleSpanish = "es"
	LocaleEnglish = "en"
)

var (
	spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths   = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// Date renders a calendar date as a spoken phrase.
//
//	es: "lunes, 1 de junio de 2025"
//	en: "Monday, June 1st, 2025"
func Date(t time.Time, locale string) string {
	if locale == LocaleSpanish {
		return fmt.Sprintf("%s, %d de %s de %d",
			spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
	}
	return fmt.Sprintf("%s, %s %s, %d",
		t.Weekday().String(), t.Month().String(), ordinalEN(t.Day()), t.Year())
}

// Time renders a clock time with a spoken day-part qualifier.
//
//	es: "10:30 de la mañana"
//	en: "10:30 in the morning"
func Time(t time.Time, locale string) string {
	hour, minute := t.Hour(), t.Minute()

	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}
	clock := fmt.Sprintf("%d:%02d", displayHour, minute)

	if locale == LocaleSpanish {
		switch {
		case hour < 12:
			return clock + " de la mañana"
		case hour < 20:
			return clock + " de la tarde"
		default:
			return clock + " de la noche"
		}
	}
	switch {
	case hour < 12:
		return clock + " in the morning"
	case hour < 18:
		return clock + " in the afternoon"
	default:
		return clock + " in the evening"
	}
}

// DateTime renders a date and time as one spoken phrase.
func DateTime(t time.Time, locale string) string {
	if locale == LocaleSpanish {
		return Date(t, locale) + " a las " + Time(t, locale)
	}
	return Date(t, locale) + " at " + Time(t, locale)
}

// Duration renders a duration in minutes as a spoken phrase.
//
//	es: "una hora y media", "45 minutos"
//	en: "an hour and a half", "45 minutes"
func Duration(minutes int, locale string) string {
	if minutes < 0 {
		minutes = 0
	}
	hours := minutes / 60
	rem := minutes % 60

	if locale == LocaleSpanish {
		switch {
		case hours == 0 && rem == 1:
			return "un minuto"
		case hours == 0:
			return fmt.Sprintf("%d minutos", rem)
		case hours == 1 && rem == 0:
			return "una hora"
		case hours == 1 && rem == 30:
			return "una hora y media"
		case hours == 1:
			return fmt.Sprintf("una hora y %d minutos", rem)
		case rem == 0:
			return fmt.Sprintf("%d horas", hours)
		case rem == 30:
			return fmt.Sprintf("%d horas y media", hours)
		default:
			return fmt.Sprintf("%d horas y %d minutos", hours, rem)
		}
	}

	switch {
	case hours == 0 && rem == 1:
		return "one minute"
	case hours == 0:
		return fmt.Sprintf("%d minutes", rem)
	case hours == 1 && rem == 0:
		return "an hour"
	case hours == 1 && rem == 30:
		return "an hour and a half"
	case hours == 1:
		return fmt.Sprintf("an hour and %d minutes", rem)
	case rem == 0:
		return fmt.Sprintf("%d hours", hours)
	case rem == 30:
		return fmt.Sprintf("%d and a half hours", hours)
	default:
		return fmt.Sprintf("%d hours and %d minutes", hours, rem)
	}
}

// Money renders an amount in a currency as a spoken phrase. The minor unit
// is spoken only when non-zero.
//
//	es: "25 euros con 50 céntimos"
//	en: "25 dollars and 50 cents"
func Money(amount float64, currency, locale string) string {
	if amount < 0 {
		amount = 0
	}
	whole := int(amount)
	cents := int(amount*100+0.5) - whole*100

	major, minor := currencyWords(currency, locale)

	if locale == LocaleSpanish {
		phrase := fmt.Sprintf("%d %s", whole, pluralES(whole, major))
		if cents > 0 {
			phrase += fmt.Sprintf(" con %d %s", cents, pluralES(cents, minor))
		}
		return phrase
	}

	phrase := fmt.Sprintf("%d %s", whole, pluralEN(whole, major))
	if cents > 0 {
		phrase += fmt.Sprintf(" and %d %s", cents, pluralEN(cents, minor))
	}
	return phrase
}

// List joins items into a spoken enumeration with a final conjunction.
// Spanish uses "e" instead of "y" before words starting with an i sound.
func List(items []string, locale string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}

	head := strings.Join(items[:len(items)-1], ", ")
	last := items[len(items)-1]

	if locale == LocaleSpanish {
		conj := "y"
		lower := strings.ToLower(last)
		if strings.HasPrefix(lower, "i") || strings.HasPrefix(lower, "hi") {
			conj = "e"
		}
		return head + " " + conj + " " + last
	}
	return head + " and " + last
}

// ConfirmationCode renders a confirmation code character by character so the
// synthesizer spells it out instead of pronouncing it as a word.
func ConfirmationCode(code string) string {
	parts := make([]string, 0, len(code))
	for _, r := range code {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}

func ordinalEN(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

func currencyWords(currency, locale string) (major, minor string) {
	switch strings.ToUpper(currency) {
	case "EUR", "":
		if locale == LocaleSpanish {
			return "euro", "céntimo"
		}
		return "euro", "cent"
	case "MXN":
		if locale == LocaleSpanish {
			return "peso", "centavo"
		}
		return "peso", "cent"
	case "USD":
		if locale == LocaleSpanish {
			return "dólar", "centavo"
		}
		return "dollar", "cent"
	default:
		return strings.ToLower(currency), "cent"
	}
}

func pluralES(n int, word string) string {
	if n == 1 {
		return word
	}
	if strings.HasSuffix(word, "r") || strings.HasSuffix(word, "n") {
		return word + "es"
	}
	return word + "s"
}

func pluralEN(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
