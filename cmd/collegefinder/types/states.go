package types

import (
	"strings"

	"golang.org/x/exp/slices"
)

// StateCodes lists the USPS codes accepted as a state filter: the 50 states,
// the District of Columbia and Puerto Rico.
var StateCodes = []string{
	"AK", "AL", "AR", "AZ", "CA", "CO", "CT", "DC", "DE", "FL",
	"GA", "HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA",
	"MD", "ME", "MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE",
	"NH", "NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "PR",
	"RI", "SC", "SD", "TN", "TX", "UT", "VA", "VT", "WA", "WI",
	"WV", "WY",
}

// IsStateCode reports whether code, compared case-insensitively, is on the
// allow-list.
func IsStateCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	return slices.Contains(StateCodes, strings.ToUpper(code))
}

// NormalizeState upper-cases and trims code, returning false when the result
// is not an allow-listed code.
func NormalizeState(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsStateCode(code) {
		return "", false
	}
	return code, true
}
