package scraper

import "strings"

// CleanText collapses every whitespace run, newlines included, into a
// single space and trims the ends.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
