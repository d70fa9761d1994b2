package main

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aryascripts/whatwg-node/pkg/cookiestore"
	"github.com/aryascripts/whatwg-node/pkg/isolate"
)

// Attribute keys of a cookie object. They double as query parameters.
const (
	attrName     = "name"
	attrValue    = "value"
	attrDomain   = "domain"
	attrPath     = "path"
	attrExpires  = "expires" // int64, epoch millis
	attrMaxAge   = "maxAge"  // time.Duration
	attrSecure   = "secure"
	attrSameSite = "sameSite"
	attrHTTPOnly = "httpOnly"
)

// unsetParam lists attributes to drop from the defaults, comma separated.
const unsetParam = "unset"

var errBadRequest = errors.New("bad request")

// maxAgeLimit is the largest maxAge, in seconds, a time.Duration holds.
const maxAgeLimit = math.MaxInt64 / int64(time.Second)

var attrKeys = []string{
	attrName, attrValue, attrDomain, attrPath, attrExpires,
	attrMaxAge, attrSecure, attrSameSite, attrHTTPOnly,
}

func knownAttr(key string) bool {
	return slices.Contains(attrKeys, key)
}

// newDefaults builds the base object every request view reads through to.
// It is never written after startup.
func newDefaults(cfg *Config) *isolate.Map {
	values := map[string]any{
		attrSecure:   cfg.CookieSecure,
		attrHTTPOnly: cfg.CookieHTTPOnly,
	}
	if cfg.CookieDomain != "" {
		values[attrDomain] = cfg.CookieDomain
	}
	if cfg.CookiePath != "" {
		values[attrPath] = cfg.CookiePath
	}
	if cfg.CookieSameSite != "" {
		values[attrSameSite] = cfg.CookieSameSite
	}
	if cfg.CookieTTL > 0 {
		values[attrMaxAge] = cfg.CookieTTL
	}
	return isolate.FromValues(values, attrKeys...)
}

// applyParams writes request parameters into view. Deletions from
// "unset" are applied after the writes.
func applyParams(view isolate.Object, params url.Values) error {
	for key, vals := range params {
		if key == unsetParam || !knownAttr(key) || len(vals) == 0 {
			continue
		}
		raw := vals[0]
		if !utf8.ValidString(raw) {
			return fmt.Errorf("%w: %s is not valid UTF-8", errBadRequest, key)
		}
		v, err := parseAttr(key, raw)
		if err != nil {
			return err
		}
		view.Set(key, v)
	}
	for _, list := range params[unsetParam] {
		for _, key := range strings.Split(list, ",") {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if !knownAttr(key) {
				return fmt.Errorf("%w: cannot unset unknown attribute %q", errBadRequest, key)
			}
			view.Delete(key)
		}
	}
	return nil
}

func parseAttr(key, raw string) (any, error) {
	switch key {
	case attrSecure, attrHTTPOnly:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errBadRequest, key, err)
		}
		return b, nil
	case attrExpires:
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errBadRequest, key, err)
		}
		return ms, nil
	case attrMaxAge:
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || secs < 0 || secs > maxAgeLimit {
			return nil, fmt.Errorf("%w: %s must be between 0 and %d seconds", errBadRequest, key, maxAgeLimit)
		}
		return time.Duration(secs) * time.Second, nil
	case attrSameSite:
		ss, err := cookiestore.ParseSameSite(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return ss, nil
	default:
		return raw, nil
	}
}

// cookieFrom reads a cookie record out of obj. An explicit expiry wins
// over maxAge, which is counted from now.
func cookieFrom(obj isolate.Object, now time.Time) cookiestore.Cookie {
	c := cookiestore.Cookie{
		Name:     getString(obj, attrName),
		Value:    getString(obj, attrValue),
		Domain:   getString(obj, attrDomain),
		Path:     getString(obj, attrPath),
		Secure:   getBool(obj, attrSecure),
		HTTPOnly: getBool(obj, attrHTTPOnly),
	}
	if v, ok := obj.Get(attrSameSite); ok {
		c.SameSite, _ = v.(cookiestore.SameSite)
	}
	if v, ok := obj.Get(attrExpires); ok {
		if ms, ok := v.(int64); ok {
			c.Expires = cookiestore.ExpiresMillis(ms)
		}
	} else if v, ok := obj.Get(attrMaxAge); ok {
		if d, ok := v.(time.Duration); ok && d > 0 {
			c.Expires = cookiestore.ExpiresAt(now.Add(d))
		}
	}
	return c
}

func getString(obj isolate.Object, key string) string {
	v, _ := obj.Get(key)
	s, _ := v.(string)
	return s
}

func getBool(obj isolate.Object, key string) bool {
	v, _ := obj.Get(key)
	b, _ := v.(bool)
	return b
}

// overriddenKeys lists the attributes a request changed relative to the
// defaults.
func overriddenKeys(view *isolate.Wrapper) []string {
	var keys []string
	for _, k := range attrKeys {
		if view.Overridden(k) {
			keys = append(keys, k)
		}
	}
	return keys
}
