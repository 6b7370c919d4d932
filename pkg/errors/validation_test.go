package errors

import (
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "instances/toy.toml", false},
		{"absolute", "/tmp/toy.toml", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("expected INVALID_PATH, got %v", GetCode(err))
			}
		})
	}
}

func TestValidateInstancePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode Code
	}{
		{"toml", "toy.toml", ""},
		{"json", "toy.json", ""},
		{"upper case", "TOY.TOML", ""},
		{"yaml", "toy.yaml", ErrCodeInvalidFormat},
		{"no extension", "toy", ErrCodeInvalidFormat},
		{"empty", "", ErrCodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstancePath(tt.input)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("ValidateInstancePath(%q) code = %q, want %q", tt.input, got, tt.wantCode)
			}
		})
	}
}

func TestValidateDiagramPath(t *testing.T) {
	for _, ok := range []string{"out.dot", "out.gv", "out.svg"} {
		if err := ValidateDiagramPath(ok); err != nil {
			t.Errorf("ValidateDiagramPath(%q) = %v, want nil", ok, err)
		}
	}
	if err := ValidateDiagramPath("out.png"); !Is(err, ErrCodeInvalidFormat) {
		t.Errorf("ValidateDiagramPath(out.png) = %v, want INVALID_FORMAT", err)
	}
}
