package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// IdentifierDomain is the domain of the synthetic email-shaped login
// identifiers. The auth provider only accepts email-shaped logins, so every
// driver account is keyed by driver<digits>@<IdentifierDomain>; the whole
// identity model depends on this convention staying stable.
const IdentifierDomain = "taxiye.app"

// PhoneDigits reduces a phone number to its digit sequence with a single
// leading zero stripped. Two inputs with the same digit sequence map to the
// same result regardless of spacing, dashes or a leading zero.
func PhoneDigits(phoneNumber string) string {
	digits := nonDigit.ReplaceAllString(phoneNumber, "")
	return strings.TrimPrefix(digits, "0")
}

// DriverIdentifier derives the synthetic login identifier for a phone number.
// It is a pure function of PhoneDigits(phoneNumber).
func DriverIdentifier(phoneNumber string) string {
	return "driver" + PhoneDigits(phoneNumber) + "@" + IdentifierDomain
}

// ValidatePhoneNumber validates if a phone number is a plausible Ethiopian
// mobile number: 9 digits after the leading zero (or +251 prefix), starting
// with 9 or 7.
func ValidatePhoneNumber(phoneNumber string) bool {
	digits := nonDigit.ReplaceAllString(phoneNumber, "")
	digits = strings.TrimPrefix(digits, "251")
	digits = strings.TrimPrefix(digits, "0")

	if len(digits) != 9 {
		return false
	}
	return digits[0] == '9' || digits[0] == '7'
}

// NormalizePhoneNumber normalizes a phone number for database storage.
func NormalizePhoneNumber(phoneNumber string) string {
	return PhoneDigits(phoneNumber)
}

// DisplayPhoneNumber formats a stored phone number for display.
func DisplayPhoneNumber(phoneNumber string) string {
	digits := PhoneDigits(phoneNumber)
	if len(digits) == 9 {
		// Format as +251 9X XXX XXXX
		return "+251 " + digits[:2] + " " + digits[2:5] + " " + digits[5:]
	}
	return phoneNumber
}
