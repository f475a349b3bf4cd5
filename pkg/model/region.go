package model

import (
	"fmt"
	"strings"
)

// Region identifies the geographic scope of the dashboard: a two-letter
// state or territory code. The zero value is National (unfiltered).
type Region string

// National is the unfiltered scope.
const National Region = ""

// ParseRegion normalizes user input ("ca", " CA ") into a Region.
// An empty string parses as National.
func ParseRegion(s string) (Region, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return National, nil
	}
	if len(s) != 2 || s[0] < 'A' || s[0] > 'Z' || s[1] < 'A' || s[1] > 'Z' {
		return National, fmt.Errorf("invalid region %q: want a two-letter code", s)
	}
	return Region(s), nil
}

// IsNational reports whether r is the unfiltered scope.
func (r Region) IsNational() bool { return r == National }

// Label is the region code, or "national" for the unfiltered scope.
// Export filenames embed it.
func (r Region) Label() string {
	if r.IsNational() {
		return "national"
	}
	return string(r)
}

func (r Region) String() string { return r.Label() }
