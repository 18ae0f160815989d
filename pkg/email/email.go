// Package email normalizes and inspects email addresses.
package email

import (
	"net/mail"
	"strings"
)

// Normalize trims and lowercases an address so lookups and unique indexes
// agree on one spelling.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid reports whether s is a bare address (no display name).
func IsValid(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
