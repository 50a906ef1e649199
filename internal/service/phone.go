package service

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^(7|8)?\d{10}$`)

// NormalizePhone приводит номер к каноническому виду +7XXXXXXXXXX.
// Из ввода убираются все нецифровые символы; допускается ведущая 7 или 8
// перед десятью цифрами номера. Непригодный ввод — ErrBadPhone.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()

	if !phonePattern.MatchString(cleaned) {
		return "", ErrBadPhone
	}

	switch {
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "8"):
		return "+7" + cleaned[1:], nil
	case len(cleaned) == 11:
		return "+" + cleaned, nil
	default:
		return "+7" + cleaned, nil
	}
}
