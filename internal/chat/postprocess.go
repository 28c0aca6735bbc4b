package chat

import (
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// cleanModelText strips heavy markdown emphasis markers and collapses runs
// of blank lines. List bullets and paragraph breaks survive untouched.
func cleanModelText(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
