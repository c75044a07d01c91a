// Package httpapi serves the clipboard browser over HTTP: a JSON API over
// the history and command rules, and a WebSocket stream of browser events.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go.klb.dev/clipshelf/internal/browser"
	"go.klb.dev/clipshelf/internal/command"
	"go.klb.dev/clipshelf/internal/history"
)

// RegisterRoutes returns the API handler for b. A non-empty token must
// accompany every request.
func RegisterRoutes(b *browser.Browser, token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	r.Use(requireSameOrigin)
	r.Use(requireToken(token))
	r.Use(middleware.AllowContentType("application/json"))

	h := &handler{b: b}

	// History
	r.Get("/api/items", h.listItems)
	r.Post("/api/items", h.addItem)
	r.Get("/api/items/{row}", h.getItem)
	r.Put("/api/items/{row}", h.setItem)
	r.Delete("/api/items/{row}", h.removeItem)
	r.Post("/api/items/{row}/select", h.selectItem)

	// Commands
	r.Get("/api/items/{row}/commands", h.itemCommands)
	r.Post("/api/items/{row}/commands/{name}", h.runCommand)
	r.Get("/api/commands", h.listCommands)
	r.Post("/api/commands", h.addCommand)
	r.Delete("/api/commands/{name}", h.deleteCommand)

	// Events
	r.Get("/api/events", h.handleEvents)

	return r
}

type handler struct {
	b *browser.Browser
}

// logRequests logs each request at debug level through slog.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// requireSameOrigin rejects requests sent by pages of other origins.
func requireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sameOrigin(r) {
			http.Error(w, "cross-origin request refused", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireToken checks the bearer token. Browsers cannot set headers on
// WebSocket upgrades, so the token is also taken from ?token=.
func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(requestToken(r)), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="clipshelf"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) string {
	if auth, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(auth)
	}
	if t := r.Header.Get("X-Auth-Token"); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps browser errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrNoSuchRow), errors.Is(err, browser.ErrNoCurrent):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, command.ErrUnknownCommand):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// rowParam parses {row}; "current" names the current row.
func (h *handler) rowParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := chi.URLParam(r, "row")
	if s == "current" {
		return h.b.Current(), true
	}
	row, err := strconv.Atoi(s)
	if err != nil || row < 0 {
		http.Error(w, "invalid row", http.StatusBadRequest)
		return 0, false
	}
	return row, true
}
