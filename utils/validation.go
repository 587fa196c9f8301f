// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// ValidatePhone checks for an optional + followed by 7-15 digits.
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// ToE164 prefixes a local number with countryCode. Numbers that already carry
// a + are returned normalized; a leading trunk 0 is dropped.
func ToE164(phone, countryCode string) string {
	phone = NormalizePhone(phone)
	if phone == "" || strings.HasPrefix(phone, "+") || countryCode == "" {
		return phone
	}
	if !strings.HasPrefix(countryCode, "+") {
		countryCode = "+" + countryCode
	}
	return countryCode + strings.TrimLeft(phone, "0")
}

// IsE164 reports whether the number carries an international prefix.
func IsE164(phone string) bool {
	return strings.HasPrefix(NormalizePhone(phone), "+")
}
