// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/orchat/internal/oauth"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	// ErrNotLoopback is returned for callback URLs that are not on this host.
	ErrNotLoopback = errors.New("server: callback host is not a loopback address")
	// ErrNotStarted is returned by Wait before Start.
	ErrNotStarted = errors.New("server: receiver not started")
)

// ============================================================================
// RECEIVER
// ============================================================================

// Receiver accepts one OAuth redirect on a loopback address.
type Receiver struct {
	addr   string
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener

	result chan url.Values
	once   sync.Once
}

// NewReceiver returns a receiver for callbackURL. The host must be
// localhost or a loopback IP. A missing port defaults to 80.
func NewReceiver(callbackURL string, logger *slog.Logger) (*Receiver, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("server: parse callback URL: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("server: callback URL must use http, got %q", u.Scheme)
	}
	if !isLoopback(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrNotLoopback, u.Hostname())
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Receiver{
		addr:   net.JoinHostPort(u.Hostname(), port),
		path:   path,
		logger: logger,
		result: make(chan url.Values, 1),
	}, nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Start binds the address and serves in the background.
func (r *Receiver) Start() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", r.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(r.path, r.handleCallback)

	handler := Chain(
		RecoveryMiddleware(r.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(r.logger),
	)(mux)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	r.mu.Lock()
	r.server = srv
	r.listener = ln
	r.mu.Unlock()

	r.logger.Info("callback receiver listening", "addr", ln.Addr().String(), "path", r.path)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("callback receiver stopped", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (r *Receiver) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener != nil {
		return r.listener.Addr().String()
	}
	return r.addr
}

// URL returns the callback URL of the bound address.
func (r *Receiver) URL() string {
	return "http://" + r.Addr() + r.path
}

// Wait blocks until a request with a code arrives or ctx is done.
func (r *Receiver) Wait(ctx context.Context) (url.Values, error) {
	r.mu.Lock()
	started := r.server != nil
	r.mu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}

	select {
	case q := <-r.result:
		return q, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops the server.
func (r *Receiver) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	srv := r.server
	r.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ============================================================================
// HANDLER
// ============================================================================

const pageTemplate = `<!doctype html>
<html><head><meta charset="utf-8"><title>orchat</title>
<style>body{font-family:sans-serif;margin:4em auto;max-width:32em}</style>
</head><body><h1>%s</h1><p>%s</p></body></html>
`

func (r *Receiver) handleCallback(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if req.URL.Path != r.path {
		http.NotFound(w, req)
		return
	}

	query := req.URL.Query()
	if strings.TrimSpace(query.Get(oauth.CodeParam)) == "" {
		writePage(w, http.StatusBadRequest, "Missing code", "The provider did not send an authorization code. Try logging in again.")
		return
	}

	delivered := false
	r.once.Do(func() {
		r.result <- query
		delivered = true
	})
	if !delivered {
		writePage(w, http.StatusConflict, "Already received", "orchat has already received a code. You can close this window.")
		return
	}
	writePage(w, http.StatusOK, "Signed in", "orchat received the authorization code. You can close this window.")
}

func writePage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, pageTemplate, title, body)
}
