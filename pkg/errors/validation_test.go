package errors

import (
	"strings"
	"testing"
)

func TestValidateFractalName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "fern", false},
		{"with spaces inside", "barnsley fern", false},
		{"auto name", "newTransf3", false},
		{"unicode", "smok-Ł", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"semicolon", "a;b", true},
		{"comma", "a,b", true},
		{"newline", "a\nb", true},
		{"tab", "a\tb", true},
		{"leading space", " fern", true},
		{"trailing space", "fern ", true},
		{"too long", strings.Repeat("x", MaxNameLength+1), true},
		{"max length", strings.Repeat("x", MaxNameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFractalName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFractalName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateFractalName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/fern.svg", false},
		{"absolute", "/tmp/fern.png", false},
		{"empty", "", true},
		{"null byte", "fern\x00.svg", true},
		{"too long", strings.Repeat("a", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
