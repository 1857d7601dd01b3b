package seo

import (
	"net"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Normalize trims raw and prepends https:// when it has no http(s) scheme.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "https://" + raw
	}
	return raw
}

// IsValidURL reports whether raw is an absolute http(s) URL with a
// plausible host.
func IsValidURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}
	dot := strings.LastIndexByte(host, '.')
	return dot > 0 && dot < len(host)-1
}

// Domain returns the lower-cased host name of raw, or "" when raw does
// not parse.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// FormatURL returns host and path of raw for display, or raw itself when
// it does not parse as an absolute URL.
func FormatURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return u.Host + path
}

// Truncate shortens text to max runes, ending in "..." when cut.
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	if max <= 0 {
		return ""
	}
	if max <= 3 {
		return strings.Repeat(".", max)
	}
	r := []rune(text)
	return string(r[:max-3]) + "..."
}
