// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func startReceiver(t *testing.T, callback string) *Receiver {
	t.Helper()
	rcv, err := NewReceiver(callback, nil)
	if err != nil {
		t.Fatalf("NewReceiver(%q) error = %v", callback, err)
	}
	if err := rcv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = rcv.Shutdown(ctx)
	})
	return rcv
}

// =============================================================================
// CONSTRUCTION TESTS
// =============================================================================

func TestNewReceiver_Validation(t *testing.T) {
	tests := []struct {
		name     string
		callback string
		wantErr  bool
		wantAddr string
	}{
		{"localhost", "http://localhost:3000/", false, "localhost:3000"},
		{"ipv4 loopback", "http://127.0.0.1:8080/cb", false, "127.0.0.1:8080"},
		{"ipv6 loopback", "http://[::1]:9000/", false, "[::1]:9000"},
		{"default port", "http://localhost/", false, "localhost:80"},
		{"remote host", "http://example.com:3000/", true, ""},
		{"https", "https://localhost:3000/", true, ""},
		{"garbage", "://", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rcv, err := NewReceiver(tt.callback, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewReceiver(%q) error = %v, wantErr %v", tt.callback, err, tt.wantErr)
			}
			if err == nil && rcv.Addr() != tt.wantAddr {
				t.Errorf("Addr() = %q, want %q", rcv.Addr(), tt.wantAddr)
			}
		})
	}

	if _, err := NewReceiver("http://example.com/", nil); !errors.Is(err, ErrNotLoopback) {
		t.Errorf("remote host error = %v, want ErrNotLoopback", err)
	}
}

func TestWait_NotStarted(t *testing.T) {
	rcv, err := NewReceiver("http://127.0.0.1:0/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rcv.Wait(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Wait() error = %v, want ErrNotStarted", err)
	}
}

// =============================================================================
// CALLBACK TESTS
// =============================================================================

func TestReceiver_DeliversCode(t *testing.T) {
	rcv := startReceiver(t, "http://127.0.0.1:0/")

	resp, err := http.Get(rcv.URL() + "?code=abc&state=s1")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q, want no-referrer", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q, err := rcv.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if q.Get("code") != "abc" || q.Get("state") != "s1" {
		t.Errorf("query = %v", q)
	}

	// A second redirect is refused; the first code stays the result.
	resp, err = http.Get(rcv.URL() + "?code=other")
	if err != nil {
		t.Fatalf("second GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second status = %d, want 409", resp.StatusCode)
	}
}

func TestReceiver_WaitHonorsContext(t *testing.T) {
	rcv := startReceiver(t, "http://127.0.0.1:0/")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := rcv.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}
}

func TestHandleCallback(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"missing code", http.MethodGet, "/", http.StatusBadRequest},
		{"blank code", http.MethodGet, "/?code=%20", http.StatusBadRequest},
		{"wrong method", http.MethodPost, "/?code=x", http.StatusMethodNotAllowed},
		{"other path", http.MethodGet, "/favicon.ico", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rcv, err := NewReceiver("http://127.0.0.1:0/", nil)
			if err != nil {
				t.Fatal(err)
			}
			rec := httptest.NewRecorder()
			rcv.handleCallback(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			select {
			case q := <-rcv.result:
				t.Errorf("unexpected delivery %v", q)
			default:
			}
		})
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRecoveryMiddleware(t *testing.T) {
	rcv, _ := NewReceiver("http://127.0.0.1:0/", nil)
	h := Chain(RecoveryMiddleware(rcv.logger), SecurityHeadersMiddleware())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers should be set before the panic")
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mw("a"), mw("b"), mw("c"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v, want [a b c]", order)
	}
}
