// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/orchat/internal/catalog"
	"github.com/jeranaias/orchat/internal/cloud"
	"github.com/jeranaias/orchat/internal/completion"
	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/hydrate"
	"github.com/jeranaias/orchat/internal/keystore"
	"github.com/jeranaias/orchat/internal/oauth"
	"github.com/jeranaias/orchat/internal/shell"
	"github.com/jeranaias/orchat/internal/storage"
)

// ErrClosed is returned by Mount after Close.
var ErrClosed = errors.New("session: closed")

// ErrAlreadyMounted is returned by a second Mount.
var ErrAlreadyMounted = errors.New("session: already mounted")

// Deps are the collaborators of a session. Config and Store are required.
type Deps struct {
	Config *config.Config
	Store  storage.Storage

	// ConfigPath, when set, is watched for theme changes while mounted.
	ConfigPath string
	// Query carries the inbound OAuth callback parameters.
	Query url.Values

	Client   *cloud.Client
	Logger   *slog.Logger
	Gate     *hydrate.Gate
	Document *shell.Document
}

// Notice is a dismissible message for the user.
type Notice struct {
	Source string
	Err    error
}

func (n Notice) String() string {
	return fmt.Sprintf("%s: %v", n.Source, n.Err)
}

// MountReport summarizes the mount effects. Errors are informational.
type MountReport struct {
	CatalogErr error
	Redeem     oauth.Result
	RedeemErr  error
}

// Session owns the state of one interactive session.
type Session struct {
	id      string
	started time.Time
	logger  *slog.Logger

	cfg          *config.Config
	configPath   string
	query        url.Values
	store        storage.Storage
	keys         *keystore.KeyStore
	gate         *hydrate.Gate
	app          *config.AppConfig
	doc          *shell.Document
	sync         *shell.Synchronizer
	catalog      *catalog.Loader
	redeemer     *oauth.Redeemer
	orchestrator *completion.Orchestrator

	mu         sync.RWMutex
	credential string
	mounted    bool
	closed     bool
	cancel     context.CancelFunc
	watcher    *config.Watcher
	notices    []func(Notice)
	load       *catalogLoad
}

// catalogLoad is the outcome of one mount's catalog fetch. models and err
// are written before done is closed.
type catalogLoad struct {
	done   chan struct{}
	models []cloud.Model
	err    error
}

// New constructs a session. It performs no I/O.
func New(deps Deps) (*Session, error) {
	if deps.Config == nil {
		return nil, errors.New("session: config is required")
	}
	if deps.Store == nil {
		return nil, errors.New("session: store is required")
	}
	cfg := deps.Config

	policy, err := completion.ParsePolicy(cfg.Completion.Overlap)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := deps.Client
	if client == nil {
		client = cloud.New(cloud.WithUserAgent(cfg.API.UserAgent), cloud.WithLogger(logger))
	}
	gate := deps.Gate
	if gate == nil {
		gate = hydrate.New()
	}
	doc := deps.Document
	if doc == nil {
		doc = shell.NewDocument()
	}

	id := uuid.NewString()
	logger = logger.With("session", id)

	s := &Session{
		id:         id,
		started:    time.Now(),
		logger:     logger,
		cfg:        cfg,
		configPath: deps.ConfigPath,
		query:      deps.Query,
		store:      deps.Store,
		keys:       keystore.New(deps.Store),
		gate:       gate,
		doc:        doc,
	}

	s.catalog = catalog.New(client, cfg.Catalog.URL,
		catalog.WithTimeout(time.Duration(cfg.Catalog.TimeoutSecs)*time.Second),
		catalog.WithMaxRetries(cfg.Catalog.MaxRetries),
		catalog.WithLogger(logger),
	)

	var source config.ModelSource = config.ModelSourceFunc(s.catalogModels)
	if cfg.API.ModelsURL != "" {
		modelsURL := cfg.API.ModelsURL
		source = config.ModelSourceFunc(func(ctx context.Context) ([]cloud.Model, error) {
			var resp cloud.ModelsResponse
			if err := client.GetJSON(ctx, "config models", modelsURL, &resp); err != nil {
				return nil, err
			}
			return resp.Data, nil
		})
	}
	s.app = config.NewAppConfig(cfg, source)
	s.sync = shell.NewSynchronizer(doc, s.app, logger)

	s.redeemer = oauth.NewRedeemer(client, cfg.ExchangeEndpoint(), cfg.OAuth.ApplyKey, s, logger)
	s.orchestrator = completion.New(client, cfg.CompletionsEndpoint(),
		completion.WithPolicy(policy),
		completion.WithTimeout(time.Duration(cfg.Completion.TimeoutSecs)*time.Second),
		completion.WithLogger(logger),
	)

	s.app.OnThemeChange(func(theme string) {
		s.sync.ApplyTheme(theme, s.app.ThemeColor())
	})

	return s, nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// StartTime returns when the session was constructed.
func (s *Session) StartTime() time.Time { return s.started }

// Gate returns the hydration gate.
func (s *Session) Gate() *hydrate.Gate { return s.gate }

// Document returns the synchronized document.
func (s *Session) Document() *shell.Document { return s.doc }

// AppConfig returns the shared runtime configuration.
func (s *Session) AppConfig() *config.AppConfig { return s.app }

// Catalog returns the model catalog.
func (s *Session) Catalog() *catalog.Loader { return s.catalog }

// Orchestrator returns the completion orchestrator.
func (s *Session) Orchestrator() *completion.Orchestrator { return s.orchestrator }

// Credential returns the in-memory credential, "" before Mount or when
// none is stored.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// SetCredential persists key and mirrors it into the session. An empty key
// clears the stored credential.
func (s *Session) SetCredential(ctx context.Context, key string) error {
	if err := s.keys.Save(ctx, key); err != nil {
		return err
	}
	loaded, err := s.keys.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.credential = loaded
	s.mu.Unlock()
	s.logger.Info("credential updated", "key_fingerprint", keystore.Fingerprint(loaded))
	return nil
}

// OnNotice registers fn to receive user-facing failure notices.
func (s *Session) OnNotice(fn func(Notice)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, fn)
}

func (s *Session) notify(source string, err error) {
	s.mu.RLock()
	fns := append([]func(Notice){}, s.notices...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(Notice{Source: source, Err: err})
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Mount waits for the hydration gate, then runs the mount effects. It
// returns ErrNotHydrated-wrapped context errors if ctx ends first. Effect
// failures are reported in the MountReport and as notices, never as the
// returned error.
func (s *Session) Mount(ctx context.Context) (MountReport, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return MountReport{}, ErrClosed
	case s.mounted:
		s.mu.Unlock()
		return MountReport{}, ErrAlreadyMounted
	}
	s.mounted = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	if err := s.gate.Wait(ctx); err != nil {
		cancel()
		s.mu.Lock()
		s.mounted = false
		s.cancel = nil
		s.mu.Unlock()
		return MountReport{}, err
	}

	credential, err := s.keys.Load(ctx)
	if err != nil {
		s.logger.Error("credential load failed", "err", err)
		s.notify("key store", err)
	}
	s.mu.Lock()
	s.credential = credential
	s.mu.Unlock()
	s.logger.Info("session mounted", "key_fingerprint", keystore.Fingerprint(credential))

	s.sync.ApplyTheme(s.app.Theme(), s.app.ThemeColor())
	s.sync.ApplyLang(s.app.Language())
	s.startWatcher(ctx)

	load := &catalogLoad{done: make(chan struct{})}
	s.mu.Lock()
	s.load = load
	s.mu.Unlock()

	// The effects are independent: a failure in one never cancels another.
	var report MountReport
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.sync.LoadData(ctx)
	}()
	go func() {
		defer wg.Done()
		defer close(load.done)
		load.models, load.err = s.catalog.Load(ctx)
		if load.err != nil {
			report.CatalogErr = load.err
			s.notify("model catalog", load.err)
		}
	}()
	go func() {
		defer wg.Done()
		res, err := s.redeemer.RedeemIfPresent(ctx, s.query)
		report.Redeem = res
		if err != nil {
			report.RedeemErr = err
			s.notify("oauth", err)
		}
	}()
	wg.Wait()

	return report, nil
}

// catalogModels is the gateway's model source when no separate models URL
// is configured. During a mount it waits for that mount's catalog load, so
// the directory is fetched once. Outside a mount it fetches directly.
func (s *Session) catalogModels(ctx context.Context) ([]cloud.Model, error) {
	s.mu.RLock()
	load := s.load
	s.mu.RUnlock()
	if load == nil {
		return s.catalog.FetchModels(ctx)
	}
	select {
	case <-load.done:
		return load.models, load.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) startWatcher(ctx context.Context) {
	if s.configPath == "" {
		return
	}
	w, err := config.NewWatcher(s.configPath, s.app, s.logger)
	if err != nil {
		s.logger.Warn("config watcher unavailable", "path", s.configPath, "err", err)
		return
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	go w.Run(ctx)
}

// Submit sends prompt with the credential and selected model captured now.
func (s *Session) Submit(ctx context.Context, prompt string) (string, error) {
	out, err := s.orchestrator.Submit(ctx, s.Credential(), s.catalog.Selected(), prompt)
	if err != nil && !errors.Is(err, completion.ErrInFlight) {
		s.notify("completion", err)
	}
	return out, err
}

// Close unmounts the session: it cancels running effects, stops the config
// watcher and closes the store. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	w := s.watcher
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if w != nil {
		<-w.Done()
	}
	s.logger.Info("session closed", "duration", time.Since(s.started))
	return s.store.Close()
}
