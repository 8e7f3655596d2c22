package confirmcode

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	code, err := Generate(PrefixReservation, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(code) != 7 {
		t.Errorf("code length = %d, want 7", len(code))
	}
	if !strings.HasPrefix(code, "R") {
		t.Errorf("code %q missing reservation prefix", code)
	}
	for _, r := range code[1:] {
		if !strings.ContainsRune(Alphabet, r) {
			t.Errorf("code %q contains character %q outside the alphabet", code, r)
		}
	}
}

func TestGenerate_NoAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := Generate(PrefixAppointment, DefaultLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.ContainsAny(code[1:], "0O1I") {
			t.Fatalf("code %q contains an ambiguous character", code)
		}
	}
}

func TestGenerate_DefaultsLength(t *testing.T) {
	code, err := Generate(PrefixOrder, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 1+DefaultLength {
		t.Errorf("code length = %d, want %d", len(code), 1+DefaultLength)
	}
}

func TestPrefixFor(t *testing.T) {
	tests := []struct {
		bookingType string
		want        string
	}{
		{"appointment", "A"},
		{"reservation", "R"},
		{"order", "O"},
		{"unknown", "A"},
		{"", "A"},
	}

	for _, tt := range tests {
		if got := PrefixFor(tt.bookingType); got != tt.want {
			t.Errorf("PrefixFor(%q) = %q, want %q", tt.bookingType, got, tt.want)
		}
	}
}

func TestGenerate_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateFor("appointment")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly unique codes, got %d unique of 50", len(seen))
	}
}
