package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "spanish number with country code",
			input: "+34612345678",
			want:  "+34612345678",
		},
		{
			name:  "spanish number with spaces",
			input: "+34 612 345 678",
			want:  "+34612345678",
		},
		{
			name:  "spanish number without prefix",
			input: "612345678",
			want:  "+34612345678",
		},
		{
			name:  "mexican number with country code",
			input: "+52 55 1234 5678",
			want:  "+525512345678",
		},
		{
			name:  "us number with formatting",
			input: "+1 (415) 555-2671",
			want:  "+14155552671",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "+3461",
			wantErr: true,
		},
		{
			name:    "garbage input",
			input:   "not-a-phone",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizePhone(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Errorf("NormalizePhone(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	input := "+34 612 345 678"

	first, err := NormalizePhone(input)
	if err != nil {
		t.Fatalf("first normalization failed: %v", err)
	}

	second, err := NormalizePhone(first)
	if err != nil {
		t.Fatalf("second normalization failed: %v", err)
	}

	if first != second {
		t.Errorf("normalization not idempotent: %q != %q", first, second)
	}
}

func TestPhoneKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "e164 number",
			input: "+34612345678",
			want:  "34612345678",
		},
		{
			name:  "formatted number",
			input: "+1 (415) 555-2671",
			want:  "14155552671",
		},
		{
			name:  "already digits",
			input: "34612345678",
			want:  "34612345678",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhoneKey(tt.input); got != tt.want {
				t.Errorf("PhoneKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneKey(t *testing.T) {
	got, err := NormalizePhoneKey("+34 612 345 678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "34612345678" {
		t.Errorf("NormalizePhoneKey = %q, want %q", got, "34612345678")
	}

	if _, err := NormalizePhoneKey("bogus"); err == nil {
		t.Error("expected error for invalid phone")
	}
}
