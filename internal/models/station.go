// Package models holds the domain types shared across pipeline stages.
package models

import (
	"regexp"
	"strings"

	"github.com/paulmach/orb"
)

// Station is one bike-sharing dock from the static inventory. Created once by
// the cleaning stage and immutable afterwards.
type Station struct {
	ID       int
	Name     string
	Desc     string
	Capacity int
	Type     string
	Zone     string
	Point    orb.Point // WGS84 lon/lat
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanStationName normalizes the free-text labels of the station inventory:
// collapsed whitespace, a couple of recurring spelling fixes, and soft
// capitalization that leaves acronyms alone.
func CleanStationName(s string) string {
	s = whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.ReplaceAll(s, "UNIVERSITA'", "Università")
	s = strings.ReplaceAll(s, "FF.SS.", "FS")

	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" || w == strings.ToUpper(w) {
			continue // keep acronyms as-is
		}
		runes := []rune(w)
		words[i] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}
