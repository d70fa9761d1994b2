package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/aryascripts/whatwg-node/pkg/cookiestore"
	"github.com/aryascripts/whatwg-node/pkg/isolate"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type App struct {
	defaults *isolate.Map
	proxyURL *url.URL
	config   *Config
	now      func() time.Time
}

func newApp(cfg *Config) (*App, error) {
	app := &App{
		// Общие настройки куков, только для чтения
		defaults: newDefaults(cfg),
		config:   cfg,
		now:      time.Now,
	}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("PROXY_URL parse: %w", err)
		}
		app.proxyURL = u
	}
	return app, nil
}

// view returns a per-request copy-on-write view of the cookie defaults.
func (a *App) view() *isolate.Wrapper {
	return isolate.New(a.defaults)
}

func (a *App) handleSet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	view := a.view()
	if err := applyParams(view, r.Form); err != nil {
		log.Warnf("cookie set rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := cookieFrom(view, a.now())
	if err := cookiestore.SetCookies(w, c); err != nil {
		log.Warnf("cookie encode rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.WithFields(log.Fields{
		"cookie":     c.Name,
		"overridden": overriddenKeys(view),
	}).Debug("cookie issued")
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	// Domain and Path must match the issued cookie, so the clear goes
	// through the same defaults and overrides as set.
	view := a.view()
	if err := applyParams(view, r.Form); err != nil {
		log.Warnf("cookie clear rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	view.Delete(attrValue)
	view.Delete(attrMaxAge)
	view.Set(attrExpires, int64(0))

	c := cookieFrom(view, a.now())
	if err := cookiestore.ClearCookie(w, c); err != nil {
		log.Warnf("cookie clear rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.WithField("cookie", c.Name).Debug("cookie cleared")
	w.WriteHeader(http.StatusNoContent)
}

// requestIDCookie renders the session cookie stamped on proxied responses.
func (a *App) requestIDCookie() (string, error) {
	view := a.view()
	view.Set(attrName, a.config.RequestIDCookieName)
	view.Set(attrValue, uuid.NewString())
	view.Delete(attrMaxAge)
	return cookiestore.Encode(cookieFrom(view, a.now()))
}

func (a *App) newProxy() *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(a.proxyURL)
	origDirector := proxy.Director
	proxy.Director = func(r *http.Request) {
		origDirector(r)
		// Fix forwarded headers
		if r.Header.Get("X-Forwarded-Proto") == "" {
			if r.TLS != nil {
				r.Header.Set("X-Forwarded-Proto", "https")
			} else {
				r.Header.Set("X-Forwarded-Proto", "http")
			}
		}
		if r.Header.Get("X-Forwarded-Host") == "" {
			r.Header.Set("X-Forwarded-Host", r.Host)
		}
		// X-Forwarded-For is appended by ReverseProxy itself
	}
	if a.config.RequestIDCookieName != "" {
		proxy.ModifyResponse = func(resp *http.Response) error {
			sc, err := a.requestIDCookie()
			if err != nil {
				return err
			}
			resp.Header.Add("Set-Cookie", sc)
			return nil
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, e error) {
		log.Errorf("proxy error: %v", e)
		http.Error(w, "Upstream error", http.StatusBadGateway)
	}
	return proxy
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	prefix := a.config.PathPrefix

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	// Выдача и удаление куков
	mux.HandleFunc(prefix+"set", a.handleSet)
	mux.HandleFunc(prefix+"clear", a.handleClear)

	if a.proxyURL == nil {
		return mux
	}

	// everything else -> proxy
	proxy := a.newProxy()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		proxy.ServeHTTP(w, r)
	})
	return mux
}

func (a *App) Start() {
	s := &http.Server{
		Addr:         a.config.ListenAddr,
		Handler:      a.routes(),
		ReadTimeout:  a.config.HTTPReadTimeout,
		WriteTimeout: a.config.HTTPWriteTimeout,
	}

	upstream := "none"
	if a.proxyURL != nil {
		upstream = a.proxyURL.String()
	}
	log.Printf(
		"Listening on %s; proxy -> %s; cookie path: %s",
		a.config.ListenAddr,
		upstream,
		a.config.PathPrefix,
	)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
