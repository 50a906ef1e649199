package service

import (
	"errors"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	valid := map[string]int{
		"1":     1,
		"5":     5,
		"100":   100,
		"  10 ": 10,
	}
	for in, want := range valid {
		got, err := ParseQuantity(in)
		if err != nil {
			t.Fatalf("ParseQuantity(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseQuantity(%q) = %d, want %d", in, got, want)
		}
	}

	invalid := []string{"0", "101", "-1", "abc", "1.5", "", "10x"}
	for _, in := range invalid {
		if _, err := ParseQuantity(in); !errors.Is(err, ErrQuantityInvalid) {
			t.Fatalf("ParseQuantity(%q): want ErrQuantityInvalid, got %v", in, err)
		}
	}
}
