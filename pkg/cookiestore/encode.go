package cookiestore

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Encode renders c as a Set-Cookie header value:
//
//	Name=Value[; Domain=..][; Path=..][; Expires=..][; Secure][; SameSite=..][; HttpOnly]
//
// The value is URI-component encoded; Domain and Path are written as
// given. c is taken by value, so the inferred SameSite never reaches the
// caller's record.
func Encode(c Cookie) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("%w: empty cookie name", ErrInvalidArgument)
	}
	if !utf8.ValidString(c.Value) {
		return "", fmt.Errorf("%w: cookie %q value is not valid UTF-8", ErrInvalidArgument, c.Name)
	}
	c = c.Effective()

	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(escapeComponent(c.Value))

	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Expires.IsSet() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.Time().Format(http.TimeFormat))
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	switch c.SameSite {
	case SameSiteLax:
		b.WriteString("; SameSite=Lax")
	case SameSiteStrict:
		b.WriteString("; SameSite=Strict")
	case SameSiteNone:
		b.WriteString("; SameSite=None")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	return b.String(), nil
}

const upperhex = "0123456789ABCDEF"

// escapeComponent percent-encodes every byte outside the URI component
// unreserved set A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func escapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
