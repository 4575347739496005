// Package validate holds input validation and sanitization for
// user-supplied values. Invalid input is rejected at the boundary,
// never silently coerced.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Federal Register document numbers look like 2024-12345.
var documentIDPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{5}$`)

// Queries are restricted to a conservative character set.
var queryPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.]+$`)

// MaxQueryLen bounds search query length.
const MaxQueryLen = 100

// Comment limits.
const (
	MaxCommentLen = 1000
	MaxAuthorLen  = 50
)

var stripPolicy = bluemonday.StrictPolicy()

// DocumentID reports whether id is a well-formed document number.
func DocumentID(id string) bool {
	return documentIDPattern.MatchString(id)
}

// Query reports whether q is an acceptable search query. Limits count
// characters, not bytes.
func Query(q string) bool {
	return q != "" && utf8.RuneCountInString(q) <= MaxQueryLen && queryPattern.MatchString(q)
}

// Sanitize strips all HTML from user input before it is stored or echoed.
func Sanitize(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}
