package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aryascripts/whatwg-node/pkg/cookiestore"
)

type Config struct {
	ListenAddr string
	PathPrefix string
	ProxyURL   string
	// Cookie defaults shared by every issued cookie
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite cookiestore.SameSite
	CookieTTL      time.Duration
	// Proxy
	RequestIDCookieName string
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	LogLevel            string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		PathPrefix: getenv("COOKIE_PATH_PREFIX", "/cookies/"),
		ProxyURL:   os.Getenv("PROXY_URL"),
		// Cookie defaults
		CookieDomain:   os.Getenv("COOKIE_DOMAIN"),
		CookiePath:     getenv("COOKIE_PATH", "/"),
		CookieSecure:   getenvBool("COOKIE_SECURE", true),
		CookieHTTPOnly: getenvBool("COOKIE_HTTP_ONLY", true),
		CookieTTL:      getenvDuration("COOKIE_TTL", 0),
		// Proxy
		RequestIDCookieName: getenv("REQUEST_ID_COOKIE_NAME", "request_id"),
		HTTPReadTimeout:     getenvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		HTTPWriteTimeout:    getenvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		LogLevel:            getenv("LOG_LEVEL", "info"),
	}

	sameSite, err := cookiestore.ParseSameSite(os.Getenv("COOKIE_SAME_SITE"))
	if err != nil {
		return nil, fmt.Errorf("COOKIE_SAME_SITE: %w", err)
	}
	cfg.CookieSameSite = sameSite

	if cfg.CookieTTL < 0 {
		return nil, fmt.Errorf("COOKIE_TTL must not be negative, got %s", cfg.CookieTTL)
	}

	// Normalize prefix
	if !strings.HasPrefix(cfg.PathPrefix, "/") {
		cfg.PathPrefix = "/" + cfg.PathPrefix
	}
	if !strings.HasSuffix(cfg.PathPrefix, "/") {
		cfg.PathPrefix = cfg.PathPrefix + "/"
	}
	return cfg, nil
}
