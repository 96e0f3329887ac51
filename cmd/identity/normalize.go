package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// The normalized form is the uniqueness key across all identity records.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
