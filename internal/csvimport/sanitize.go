package csvimport

import (
	"regexp"
	"strings"
)

var (
	scriptBlockPattern  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	javascriptPattern   = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// Sanitize strips markup and script injection vectors from a cell value,
// trims it and caps it at MaxCellLength characters.
func Sanitize(s string) string {
	s = scriptBlockPattern.ReplaceAllString(s, "")
	s = javascriptPattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > MaxCellLength {
		s = string(r[:MaxCellLength])
	}
	return s
}

// stripQuotes removes one pair of wrapping quotes left by sloppy exporters.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
