package sanitizer

import "strings"

// TrimAndNormalize trims surrounding whitespace and collapses internal runs
// of whitespace to a single space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName normalizes a customer or staff name for storage and lookup.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeLabel normalizes a service or resource label to a canonical
// lowercase form for matching.
func NormalizeLabel(label string) string {
	return strings.ToLower(TrimAndNormalize(label))
}
