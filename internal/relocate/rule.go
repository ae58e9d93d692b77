// Package relocate rewrites a WordPress site's base URL across stored
// content: post bodies, attachment GUIDs and options.
package relocate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidURL is returned when a rule endpoint is not a usable URL.
var ErrInvalidURL = errors.New("invalid URL")

var siteURLPattern = regexp.MustCompile(`^https?://[^?=]*$`)

// Rule replaces every occurrence of Old with New. It is immutable once built.
type Rule struct {
	old string
	new string
}

// NewRule validates both endpoints with IsValidURL. Callers that need the
// stricter site URL check apply IsValidSiteURL before building the rule.
func NewRule(oldURL, newURL string) (Rule, error) {
	if !IsValidURL(oldURL) {
		return Rule{}, fmt.Errorf("old site URL %q: %w", oldURL, ErrInvalidURL)
	}
	if !IsValidURL(newURL) {
		return Rule{}, fmt.Errorf("new site URL %q: %w", newURL, ErrInvalidURL)
	}
	return Rule{old: oldURL, new: newURL}, nil
}

// Old returns the prefix being searched for.
func (r Rule) Old() string { return r.old }

// New returns the replacement prefix.
func (r Rule) New() string { return r.new }

// IsValidURL reports whether s is a non-empty absolute URL with a scheme and
// a host. Unescaped whitespace anywhere makes it invalid.
func IsValidURL(s string) bool {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// IsValidSiteURL reports whether s can serve as a site URL: a valid URL with
// an http or https scheme and no query string. A trailing slash is accepted;
// callers normalize it separately.
func IsValidSiteURL(s string) bool {
	return IsValidURL(s) && siteURLPattern.MatchString(s)
}
