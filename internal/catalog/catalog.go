// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog loads the public model directory and tracks the selected
// model.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jeranaias/orchat/internal/cloud"
)

// Getter is the transport the loader needs.
type Getter interface {
	GetJSON(ctx context.Context, op, url string, out cloud.Validator) error
}

// Loader fetches the model directory and holds the loaded sequence and the
// current selection. It is safe for concurrent use.
type Loader struct {
	getter     Getter
	url        string
	timeout    time.Duration
	maxRetries int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger

	mu       sync.RWMutex
	models   []cloud.Model
	selected string
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds each attempt. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithMaxRetries sets how many extra attempts follow a temporary transport
// failure.
func WithMaxRetries(n int) Option {
	return func(l *Loader) {
		if n >= 0 {
			l.maxRetries = n
		}
	}
}

// WithBackOff sets the retry schedule factory.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(l *Loader) {
		if fn != nil {
			l.newBackOff = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a loader for the directory at url.
func New(getter Getter, url string, opts ...Option) *Loader {
	l := &Loader{
		getter: getter,
		url:    url,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the directory. On success the sequence replaces the stored
// one and, if non-empty, its first id becomes the selection. On failure the
// stored sequence and selection are kept and the error is returned.
func (l *Loader) Load(ctx context.Context) ([]cloud.Model, error) {
	models, err := l.fetch(ctx)
	if err != nil {
		l.logger.Warn("model catalog load failed", "url", l.url, "err", err)
		return nil, err
	}

	l.mu.Lock()
	l.models = models
	if len(models) > 0 {
		l.selected = models[0].ID
	}
	l.mu.Unlock()

	l.logger.Info("model catalog loaded", "count", len(models))
	return append([]cloud.Model(nil), models...), nil
}

// FetchModels fetches the directory without touching the stored state.
func (l *Loader) FetchModels(ctx context.Context) ([]cloud.Model, error) {
	return l.fetch(ctx)
}

func (l *Loader) fetch(ctx context.Context) ([]cloud.Model, error) {
	attempt := func() ([]cloud.Model, error) {
		reqCtx := ctx
		if l.timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, l.timeout)
			defer cancel()
		}

		var resp cloud.ModelsResponse
		if err := l.getter.GetJSON(reqCtx, "catalog", l.url, &resp); err != nil {
			if cloud.IsTemporary(err) && ctx.Err() == nil {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp.Data, nil
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(l.newBackOff()),
		backoff.WithMaxTries(uint(l.maxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			l.logger.Debug("retrying model catalog", "err", err, "in", next)
		}),
	)
}

// Models returns a copy of the stored sequence, in directory order.
func (l *Loader) Models() []cloud.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]cloud.Model(nil), l.models...)
}

// Selected returns the selected model id, or "" if none.
func (l *Loader) Selected() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selected
}

// Select sets the selection. Any id is accepted, including one that a
// later load no longer lists.
func (l *Loader) Select(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = id
}
