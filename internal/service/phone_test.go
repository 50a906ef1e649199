package service

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plus seven", "+79991234567", "+79991234567"},
		{"leading eight", "89991234567", "+79991234567"},
		{"leading seven", "79991234567", "+79991234567"},
		{"bare ten digits", "9991234567", "+79991234567"},
		{"spaces and dashes", "8 (999) 123-45-67", "+79991234567"},
		{"dots", "7.999.123.45.67", "+79991234567"},
		{"ten digits starting with eight", "8121234567", "+78121234567"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			if err != nil {
				t.Fatalf("NormalizePhone(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizePhone_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"too short", "999123456"},
		{"too long bare", "99912345678"},
		{"too long with seven", "799912345678"},
		{"empty", ""},
		{"letters only", "abc"},
		{"foreign prefix", "+19991234567"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizePhone(tc.in); !errors.Is(err, ErrBadPhone) {
				t.Fatalf("NormalizePhone(%q): want ErrBadPhone, got %v", tc.in, err)
			}
		})
	}
}
