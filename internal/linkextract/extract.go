// Package linkextract pulls URLs out of free text.
//
// The pattern is deliberately broad: anything starting with http(s)://
// up to the next whitespace counts. Validation beyond that is not this
// package's job; a malformed "URL" simply never matches anything useful
// downstream.
package linkextract

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Links returns all URLs found in text, in first-occurrence order.
// Empty or URL-free text yields a nil slice, never an error.
func Links(text string) []string {
	if text == "" {
		return nil
	}
	return urlPattern.FindAllString(text, -1)
}

// Normalize strips trailing punctuation that commonly rides along when
// a link is embedded in prose: commas, semicolons and closing parens.
func Normalize(link string) string {
	return strings.TrimRight(link, ",;)")
}
