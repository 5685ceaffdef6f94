// Package normalize holds small helpers for canonicalizing user-supplied
// identity fields before storage or lookup.
package normalize

import "strings"

// Email lowercases and trims an email address so lookups are
// case-insensitive regardless of how the user typed it.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name and collapses internal runs of whitespace to a
// single space.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
