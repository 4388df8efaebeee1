// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package oauth redeems provider authorization codes for API keys.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jeranaias/orchat/internal/cloud"
	"github.com/jeranaias/orchat/internal/keystore"
)

// CodeParam is the query parameter carrying the authorization code.
const CodeParam = "code"

// Poster is the transport the redeemer needs.
type Poster interface {
	PostJSON(ctx context.Context, op, url string, in any, out cloud.Validator) error
}

// KeySink receives a redeemed key when key application is enabled.
type KeySink interface {
	SetCredential(ctx context.Context, key string) error
}

// Result describes one redemption check.
type Result struct {
	// Attempted is true when a code was present and the exchange was called.
	Attempted bool
	// KeyReceived is true when the exchange returned a non-empty key.
	KeyReceived bool
	// Applied is true when the key was handed to the sink.
	Applied bool
	// Fingerprint identifies the received key.
	Fingerprint string
}

// Redeemer exchanges a code for a key.
type Redeemer struct {
	poster   Poster
	url      string
	applyKey bool
	sink     KeySink
	logger   *slog.Logger
}

// NewRedeemer returns a redeemer that POSTs to exchangeURL. When applyKey
// is true a received key is passed to sink.
func NewRedeemer(poster Poster, exchangeURL string, applyKey bool, sink KeySink, logger *slog.Logger) *Redeemer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redeemer{
		poster:   poster,
		url:      exchangeURL,
		applyKey: applyKey,
		sink:     sink,
		logger:   logger,
	}
}

// RedeemIfPresent issues one exchange when query carries a non-empty code.
// Without a code it returns immediately and makes no request.
func (r *Redeemer) RedeemIfPresent(ctx context.Context, query url.Values) (Result, error) {
	code := strings.TrimSpace(query.Get(CodeParam))
	if code == "" {
		return Result{}, nil
	}
	return r.Redeem(ctx, code)
}

// Redeem exchanges code. Transport failures are logged and returned; no
// session state changes.
func (r *Redeemer) Redeem(ctx context.Context, code string) (Result, error) {
	res := Result{Attempted: true}

	var resp cloud.ExchangeResponse
	if err := r.poster.PostJSON(ctx, "oauth exchange", r.url, cloud.ExchangeRequest{Code: code}, &resp); err != nil {
		r.logger.Warn("oauth exchange failed", "err", err)
		return res, err
	}

	if resp.Key == "" {
		r.logger.Info("oauth exchange returned no key")
		return res, nil
	}

	res.KeyReceived = true
	res.Fingerprint = keystore.Fingerprint(resp.Key)

	if !r.applyKey || r.sink == nil {
		r.logger.Info("oauth key received, not applied", "key_fingerprint", res.Fingerprint)
		return res, nil
	}

	if err := r.sink.SetCredential(ctx, resp.Key); err != nil {
		r.logger.Error("oauth key could not be stored", "key_fingerprint", res.Fingerprint, "err", err)
		return res, fmt.Errorf("apply redeemed key: %w", err)
	}
	res.Applied = true
	r.logger.Info("oauth key applied", "key_fingerprint", res.Fingerprint)
	return res, nil
}

// ErrNoCode is returned by CodeFromCallback when the URL has no code.
var ErrNoCode = errors.New("oauth: callback URL has no code parameter")

// CodeFromCallback extracts the query of a full callback URL.
func CodeFromCallback(raw string) (url.Values, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse callback URL: %w", err)
	}
	q := u.Query()
	if strings.TrimSpace(q.Get(CodeParam)) == "" {
		return q, ErrNoCode
	}
	return q, nil
}

// AuthURL returns the provider page that issues a code and redirects to
// callbackURL.
func AuthURL(authURL, callbackURL string) (string, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parse auth URL: %w", err)
	}
	q := u.Query()
	q.Set("callback_url", callbackURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
