// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion drives one request/response exchange with the
// completion endpoint per user submission.
//
// The orchestrator rests in Idle. A submission moves it to Loading for the
// duration of the request and back to Idle when the request settles,
// whether it succeeded or not. A failed request leaves the previous result
// in place.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jeranaias/orchat/internal/cloud"
)

// =============================================================================
// STATE
// =============================================================================

// State is the request lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	// Settled is only carried by events; the orchestrator itself never
	// rests in it.
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Policy decides what happens to a submission made while Loading.
type Policy int

const (
	// Reject returns ErrInFlight without issuing a request.
	Reject Policy = iota
	// Queue waits for the in-flight request to settle, then proceeds.
	Queue
)

// ParsePolicy maps the config value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "reject":
		return Reject, nil
	case "queue":
		return Queue, nil
	default:
		return Reject, fmt.Errorf("completion: unknown overlap policy %q", s)
	}
}

// ErrInFlight is returned by Submit under the Reject policy when a request
// is already in flight.
var ErrInFlight = errors.New("completion: a request is already in flight")

// Event reports a lifecycle transition to subscribers.
type Event struct {
	State     State
	RequestID string
	Model     string
	// Result and Err are set on Settled events. Result is only meaningful
	// when Err is nil.
	Result   string
	Err      error
	Duration time.Duration
}

// Poster is the transport the orchestrator needs.
type Poster interface {
	PostJSON(ctx context.Context, op, url string, in any, out cloud.Validator) error
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator serializes completion requests for one session.
type Orchestrator struct {
	poster  Poster
	url     string
	policy  Policy
	timeout time.Duration
	logger  *slog.Logger

	// serial is held for the whole of a Queue-policy submission.
	serial *semaphore.Weighted

	mu        sync.Mutex
	state     State
	result    string
	hasResult bool
	lastErr   error
	subs      map[int]func(Event)
	nextSub   int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy sets the overlap policy.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithTimeout bounds each request. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns an orchestrator posting to url.
func New(poster Poster, url string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		poster: poster,
		url:    url,
		logger: slog.Default(),
		serial: semaphore.NewWeighted(1),
		subs:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the last successful result and whether there is one.
func (o *Orchestrator) Result() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result, o.hasResult
}

// LastError returns the error of the most recent settled request, or nil
// if it succeeded.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Subscribe registers fn for lifecycle events and returns a function that
// removes it. fn is called synchronously from the submitting goroutine and
// must not call Submit.
func (o *Orchestrator) Subscribe(fn func(Event)) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Submit sends one completion request built from credential, model and
// prompt and returns the assistant message content. The orchestrator is
// Idle again when Submit returns. On failure the previous result is kept.
// A queued submission whose ctx ends while waiting returns ctx.Err()
// without issuing a request.
func (o *Orchestrator) Submit(ctx context.Context, credential, model, prompt string) (string, error) {
	if o.policy == Queue {
		if err := o.serial.Acquire(ctx, 1); err != nil {
			o.logger.Debug("queued completion abandoned", "model", model, "err", err)
			return "", err
		}
		defer o.serial.Release(1)
	}

	o.mu.Lock()
	if o.state == Loading {
		o.mu.Unlock()
		o.logger.Debug("completion rejected, request in flight", "model", model)
		return "", ErrInFlight
	}
	o.state = Loading
	o.mu.Unlock()

	reqID := uuid.NewString()
	o.emit(Event{State: Loading, RequestID: reqID, Model: model})

	start := time.Now()
	content, err := o.send(ctx, credential, model, prompt)
	elapsed := time.Since(start)

	o.mu.Lock()
	if err == nil {
		o.result = content
		o.hasResult = true
	}
	o.lastErr = err
	o.state = Idle
	o.mu.Unlock()

	if err != nil {
		o.logger.Warn("completion failed", "request_id", reqID, "model", model,
			"kind", cloud.KindOf(err).String(), "duration", elapsed, "err", err)
	} else {
		o.logger.Info("completion settled", "request_id", reqID, "model", model,
			"duration", elapsed, "chars", len(content))
	}

	o.emit(Event{State: Settled, RequestID: reqID, Model: model, Result: content, Err: err, Duration: elapsed})
	return content, err
}

func (o *Orchestrator) send(ctx context.Context, credential, model, prompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := cloud.CompletionRequest{APIKey: credential, Model: model, Text: prompt}
	var resp cloud.CompletionResponse
	if err := o.poster.PostJSON(ctx, "completion", o.url, req, &resp); err != nil {
		return "", err
	}
	return resp.Content(), nil
}

func (o *Orchestrator) emit(ev Event) {
	o.mu.Lock()
	fns := make([]func(Event), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
