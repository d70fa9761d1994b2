package cookiestore

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// SetCookies encodes every cookie and adds it to w as a Set-Cookie
// header. Nothing is written unless all cookies encode.
func SetCookies(w http.ResponseWriter, cookies ...Cookie) error {
	lines := make([]string, 0, len(cookies))
	for _, c := range cookies {
		s, err := Encode(c)
		if err != nil {
			log.WithError(err).WithField("cookie", c.Name).Debug("cookie not encoded")
			return err
		}
		lines = append(lines, s)
	}
	for _, s := range lines {
		w.Header().Add("Set-Cookie", s)
	}
	return nil
}

// ClearCookie tells the browser to drop c by sending it empty and
// already expired. Name, Domain and Path must match the cookie that was
// set, or the browser keeps it.
func ClearCookie(w http.ResponseWriter, c Cookie) error {
	c.Value = ""
	c.Expires = ExpiresMillis(0)
	return SetCookies(w, c)
}
