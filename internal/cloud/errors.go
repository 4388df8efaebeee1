// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindParse
	KindValidation
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Status-derived causes. A TransportError for one of these statuses unwraps
// to the matching sentinel.
var (
	ErrAuthFailed          = errors.New("authentication failed")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNotFound            = errors.New("not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrUpstream            = errors.New("upstream error")
)

// TransportError reports a network failure (Status == 0) or a non-2xx reply.
type TransportError struct {
	Op      string
	Method  string
	URL     string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s %s: HTTP %d: %s", e.Op, e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s %s: HTTP %d", e.Op, e.Method, e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Kind implements the kinded interface.
func (e *TransportError) Kind() Kind { return KindTransport }

// Temporary reports whether retrying the same idempotent request may succeed.
func (e *TransportError) Temporary() bool {
	if e.Status == 0 {
		return true
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// ParseError reports a body that could not be decoded.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Kind implements the kinded interface.
func (e *ParseError) Kind() Kind { return KindParse }

// ValidationError reports a decoded body missing a required field.
type ValidationError struct {
	Op     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("invalid response: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: invalid response: %s %s", e.Op, e.Field, e.Reason)
}

// Kind implements the kinded interface.
func (e *ValidationError) Kind() Kind { return KindValidation }

// KindOf returns the category of the first kinded error in err's chain.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// IsTemporary reports whether err is a TransportError worth retrying.
func IsTemporary(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Temporary()
}

func statusCause(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuthFailed
	case status == http.StatusPaymentRequired:
		return ErrInsufficientCredits
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}
