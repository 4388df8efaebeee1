// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package hydrate provides the one-shot readiness gate that holds back
// interactive output and side effects until the host has drawn its first frame.
package hydrate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotHydrated is returned by Wait when ctx ends before the gate opens.
var ErrNotHydrated = errors.New("hydrate: host has not completed first render")

// Gate starts closed and opens exactly once. It never closes again.
// The zero value is not usable; call New.
type Gate struct {
	ready atomic.Bool
	once  sync.Once
	done  chan struct{}
}

// New returns a closed gate.
func New() *Gate {
	return &Gate{done: make(chan struct{})}
}

// Ready reports whether the gate has opened.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// MarkHydrated opens the gate. Calls after the first are no-ops.
func (g *Gate) MarkHydrated() {
	g.once.Do(func() {
		g.ready.Store(true)
		close(g.done)
	})
}

// Done returns a channel closed when the gate opens.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate opens or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	default:
	}
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return errors.Join(ErrNotHydrated, ctx.Err())
	}
}
