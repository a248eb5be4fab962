// Package fold does Unicode case-insensitive matching for names, search, and
// title ordering.
package fold

import (
	"strings"

	"golang.org/x/text/cases"
)

// String returns the case-folded form of s. A Caser may carry state, so
// each call gets its own.
func String(s string) string {
	return cases.Fold().String(s)
}

// Equal reports whether a and b are equal under case folding
func Equal(a, b string) bool {
	return String(a) == String(b)
}

// Contains reports whether substr occurs in s under case folding
func Contains(s, substr string) bool {
	return strings.Contains(String(s), String(substr))
}

// Compare orders a and b by their folded forms
func Compare(a, b string) int {
	return strings.Compare(String(a), String(b))
}
