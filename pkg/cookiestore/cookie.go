package cookiestore

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidArgument is returned for a cookie that cannot be rendered.
var ErrInvalidArgument = errors.New("cookiestore: invalid argument")

// SameSite is the SameSite attribute. The zero value means unset.
type SameSite string

const (
	SameSiteLax    SameSite = "lax"
	SameSiteStrict SameSite = "strict"
	SameSiteNone   SameSite = "none"
)

// secureNamePrefix marks cookies that browsers only accept with Secure.
const secureNamePrefix = "__Secure"

// ParseSameSite converts a case-insensitive SameSite name. The empty
// string maps to unset.
func ParseSameSite(s string) (SameSite, error) {
	switch v := SameSite(strings.ToLower(strings.TrimSpace(s))); v {
	case "", SameSiteLax, SameSiteStrict, SameSiteNone:
		return v, nil
	default:
		return "", fmt.Errorf("%w: unknown SameSite value %q", ErrInvalidArgument, s)
	}
}

// Expires is an optional expiry instant. The zero value means a session
// cookie.
type Expires struct {
	t   time.Time
	set bool
}

// ExpiresAt expires the cookie at t.
func ExpiresAt(t time.Time) Expires {
	return Expires{t: t, set: true}
}

// ExpiresMillis expires the cookie at ms milliseconds after the Unix
// epoch.
func ExpiresMillis(ms int64) Expires {
	return Expires{t: time.UnixMilli(ms), set: true}
}

// IsSet reports whether an expiry was given.
func (e Expires) IsSet() bool {
	return e.set
}

// Time returns the expiry instant in UTC.
func (e Expires) Time() time.Time {
	return e.t.UTC()
}

// Cookie describes one cookie to be sent in a Set-Cookie header.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  Expires
	Secure   bool
	SameSite SameSite
	HTTPOnly bool
}

// Effective returns c with the browser prefix policy applied: a
// "__Secure" name forces Secure, and a Secure cookie without SameSite
// defaults to Lax.
func (c Cookie) Effective() Cookie {
	if c.Secure || strings.HasPrefix(c.Name, secureNamePrefix) {
		c.Secure = true
		if c.SameSite == "" {
			c.SameSite = SameSiteLax
		}
	}
	return c
}
