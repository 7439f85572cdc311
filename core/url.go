package core

import (
	"net/url"
	"strings"
)

// IsURL reports whether text is a syntactically valid absolute URL.
// Questions stored as links bypass normalization and vector ranking.
func IsURL(text string) bool {
	if text == "" || strings.ContainsAny(text, " \t\r\n") {
		return false
	}
	u, err := url.Parse(text)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
