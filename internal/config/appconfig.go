// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/orchat/internal/cloud"
)

// ErrNoModelSource is returned by Models when no remote source is wired.
var ErrNoModelSource = errors.New("config: no model source")

// ModelSource fetches the remote model list.
type ModelSource interface {
	FetchModels(ctx context.Context) ([]cloud.Model, error)
}

// ModelSourceFunc adapts a function to ModelSource.
type ModelSourceFunc func(ctx context.Context) ([]cloud.Model, error)

// FetchModels calls f.
func (f ModelSourceFunc) FetchModels(ctx context.Context) ([]cloud.Model, error) {
	return f(ctx)
}

// AppConfig is the shared runtime configuration of one session: the loaded
// file plus the merged model list. It is safe for concurrent use.
type AppConfig struct {
	mu     sync.RWMutex
	cfg    *Config
	models []cloud.Model
	source ModelSource

	listeners []func(theme string)
}

// NewAppConfig wraps cfg. A nil cfg means Default().
func NewAppConfig(cfg *Config, source ModelSource) *AppConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &AppConfig{cfg: cfg, source: source}
}

// Config returns a copy of the current configuration.
func (a *AppConfig) Config() *Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Clone()
}

// Theme returns the configured theme.
func (a *AppConfig) Theme() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.UI.Theme
}

// ThemeColor returns the configured accent color.
func (a *AppConfig) ThemeColor() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.UI.ThemeColor
}

// Language returns the configured language tag, possibly empty.
func (a *AppConfig) Language() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.UI.Language
}

// OnThemeChange registers fn to be called after the theme or accent color
// changes. fn runs on the goroutine that made the change.
func (a *AppConfig) OnThemeChange(fn func(theme string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// SetTheme changes the theme and notifies listeners if it differs.
func (a *AppConfig) SetTheme(theme string) {
	a.mu.Lock()
	changed := a.cfg.UI.Theme != theme
	if changed {
		next := a.cfg.Clone()
		next.UI.Theme = theme
		a.cfg = next
	}
	listeners := append([]func(string){}, a.listeners...)
	a.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(theme)
		}
	}
}

// Update replaces the configuration and notifies theme listeners if the
// theme or accent color changed. The merged model list is kept.
func (a *AppConfig) Update(cfg *Config) {
	a.mu.Lock()
	prev := a.cfg
	a.cfg = cfg.Clone()
	changed := prev.UI.Theme != cfg.UI.Theme || prev.UI.ThemeColor != cfg.UI.ThemeColor
	listeners := append([]func(string){}, a.listeners...)
	a.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(cfg.UI.Theme)
		}
	}
}

// Models fetches the remote model list from the configured source.
func (a *AppConfig) Models(ctx context.Context) ([]cloud.Model, error) {
	a.mu.RLock()
	src := a.source
	a.mu.RUnlock()

	if src == nil {
		return nil, ErrNoModelSource
	}
	return src.FetchModels(ctx)
}

// MergeModels adds models to the shared list. Entries whose id is already
// present are replaced in place; new ids are appended in the given order.
func (a *AppConfig) MergeModels(models []cloud.Model) {
	a.mu.Lock()
	defer a.mu.Unlock()

	index := make(map[string]int, len(a.models))
	for i, m := range a.models {
		index[m.ID] = i
	}
	for _, m := range models {
		if i, ok := index[m.ID]; ok {
			a.models[i] = m
			continue
		}
		index[m.ID] = len(a.models)
		a.models = append(a.models, m)
	}
}

// MergedModels returns a copy of the merged model list.
func (a *AppConfig) MergedModels() []cloud.Model {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]cloud.Model(nil), a.models...)
}
