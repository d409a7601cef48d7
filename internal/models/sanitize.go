package models

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var displayPolicy = bluemonday.StrictPolicy()

// SanitizeDisplay strips markup from user-generated text before it is shown.
func SanitizeDisplay(s string) string {
	return strings.TrimSpace(html.UnescapeString(displayPolicy.Sanitize(s)))
}
