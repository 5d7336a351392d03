package util

import (
	"regexp"
	"strings"
)

// MinDocumentDigits is the length of a CPF, the shortest accepted document.
const MinDocumentDigits = 11

var (
	digitsOnly        = regexp.MustCompile(`^[0-9]+$`)
	documentSeparator = strings.NewReplacer(".", "", "-", "", "/", "")
)

// LooksLikeDocument reports whether s is a bare document number such as a
// CPF or CNPJ, optionally punctuated with '.', '-' or '/'.
func LooksLikeDocument(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < MinDocumentDigits {
		return false
	}
	stripped := documentSeparator.Replace(s)
	return len(stripped) >= MinDocumentDigits && digitsOnly.MatchString(stripped)
}

// StripPhonePrefix drops the leading n characters of a channel phone number,
// typically the country code.
func StripPhonePrefix(phone string, n int) string {
	if n <= 0 {
		return phone
	}
	if n >= len(phone) {
		return ""
	}
	return phone[n:]
}

// MaskPhone keeps the last four digits of a phone number for logging.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func IsValidPhone(phone string) bool {
	return len(phone) >= 8 && len(phone) <= 15 && digitsOnly.MatchString(phone)
}
