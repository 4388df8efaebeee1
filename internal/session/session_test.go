// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/orchat/internal/completion"
	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/hydrate"
	"github.com/jeranaias/orchat/internal/keystore"
	"github.com/jeranaias/orchat/internal/storage"
)

// backend serves the model directory, the OAuth exchange and completions
// and counts every request it sees.
type backend struct {
	srv       *httptest.Server
	hits      atomic.Int32
	modelHits atomic.Int32
	paths     sync.Map
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/models", func(w http.ResponseWriter, r *http.Request) {
		b.modelHits.Add(1)
		_, _ = w.Write([]byte(`{"data":[{"id":"first/model"},{"id":"second/model"}]}`))
	})
	mux.HandleFunc("/api/oauth", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":"sk-or-redeemed"}`))
	})
	mux.HandleFunc("/api/completions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	})
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		b.paths.Store(r.URL.Path, true)
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) saw(path string) bool {
	_, ok := b.paths.Load(path)
	return ok
}

func testConfig(b *backend) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = b.srv.URL
	cfg.Catalog.URL = b.srv.URL + "/api/v1/models"
	cfg.Catalog.MaxRetries = 0
	cfg.UI.Theme = config.ThemeDark
	cfg.UI.Language = "fr"
	return cfg
}

// countingStore records reads so tests can assert none happen early.
type countingStore struct {
	storage.Storage
	reads atomic.Int32
}

func (c *countingStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	c.reads.Add(1)
	return c.Storage.GetItem(ctx, key)
}

func openStore(t *testing.T) *countingStore {
	t.Helper()
	st, err := storage.OpenFile(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	return &countingStore{Storage: st}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Config: config.Default()})
	assert.Error(t, err)

	cfg := config.Default()
	cfg.Completion.Overlap = "drop"
	_, err = New(Deps{Config: cfg, Store: openStore(t)})
	assert.Error(t, err)
}

func TestMount_NothingBeforeHydration(t *testing.T) {
	b := newBackend(t)
	store := openStore(t)
	s, err := New(Deps{
		Config: testConfig(b),
		Store:  store,
		Query:  url.Values{"code": {"abc"}},
	})
	require.NoError(t, err)
	defer s.Close()

	done := make(chan MountReport, 1)
	go func() {
		report, err := s.Mount(context.Background())
		assert.NoError(t, err)
		done <- report
	}()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), b.hits.Load())
	assert.Equal(t, int32(0), store.reads.Load())
	assert.Empty(t, s.Document().Classes())

	s.Gate().MarkHydrated()

	select {
	case report := <-done:
		assert.NoError(t, report.CatalogErr)
		assert.NoError(t, report.RedeemErr)
		assert.True(t, report.Redeem.Attempted)
	case <-time.After(5 * time.Second):
		t.Fatal("mount did not finish")
	}

	assert.True(t, b.saw("/api/v1/models"))
	assert.True(t, b.saw("/api/oauth"))
	assert.Equal(t, int32(1), store.reads.Load())
	assert.Equal(t, "first/model", s.Catalog().Selected())
	assert.True(t, s.Document().HasClass("dark"))
	assert.Equal(t, "fr", s.Document().Lang())
	assert.NotEmpty(t, s.AppConfig().MergedModels())
}

func TestMount_ContextEndsBeforeHydration(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Mount(ctx)
	assert.ErrorIs(t, err, hydrate.ErrNotHydrated)
	assert.Equal(t, int32(0), b.hits.Load())
}

func TestMount_RetryAfterContextEndsBeforeHydration(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Mount(ctx)
	require.ErrorIs(t, err, hydrate.ErrNotHydrated)

	s.Gate().MarkHydrated()
	report, err := s.Mount(context.Background())
	require.NoError(t, err)
	assert.NoError(t, report.CatalogErr)
	assert.Equal(t, "first/model", s.Catalog().Selected())
}

func TestMount_FetchesDirectoryOnce(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	s.Gate().MarkHydrated()
	_, err = s.Mount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), b.modelHits.Load())
	merged := s.AppConfig().MergedModels()
	require.Len(t, merged, 2)
	assert.Equal(t, "first/model", merged[0].ID)
}

func TestMount_OnlyOnce(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	s.Gate().MarkHydrated()
	_, err = s.Mount(context.Background())
	require.NoError(t, err)
	_, err = s.Mount(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyMounted)
}

func TestMount_NoCodeNoExchange(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	s.Gate().MarkHydrated()
	report, err := s.Mount(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Redeem.Attempted)
	assert.False(t, b.saw("/api/oauth"))
}

func TestMount_ReadsStoredCredential(t *testing.T) {
	b := newBackend(t)
	store := openStore(t)
	require.NoError(t, keystore.New(store).Save(context.Background(), "sk-stored"))

	s, err := New(Deps{Config: testConfig(b), Store: store})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "", s.Credential())
	s.Gate().MarkHydrated()
	_, err = s.Mount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", s.Credential())
}

func TestMount_AppliesRedeemedKeyWhenEnabled(t *testing.T) {
	b := newBackend(t)
	cfg := testConfig(b)
	cfg.OAuth.ApplyKey = true
	store := openStore(t)

	s, err := New(Deps{Config: cfg, Store: store, Query: url.Values{"code": {"abc"}}})
	require.NoError(t, err)
	defer s.Close()

	s.Gate().MarkHydrated()
	report, err := s.Mount(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Redeem.Applied)

	key, err := keystore.New(store).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-or-redeemed", key)
}

func TestMount_CatalogFailureIsNotice(t *testing.T) {
	b := newBackend(t)
	cfg := testConfig(b)
	cfg.Catalog.URL = b.srv.URL + "/missing"

	s, err := New(Deps{Config: cfg, Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	var mu sync.Mutex
	var notices []Notice
	s.OnNotice(func(n Notice) {
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	})

	s.Gate().MarkHydrated()
	report, err := s.Mount(context.Background())
	require.NoError(t, err)
	assert.Error(t, report.CatalogErr)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, notices)
	sources := make([]string, 0, len(notices))
	for _, n := range notices {
		sources = append(sources, n.Source)
	}
	assert.Contains(t, sources, "model catalog")
}

func TestSubmit_UsesCapturedCredentialAndModel(t *testing.T) {
	b := newBackend(t)
	store := openStore(t)
	s, err := New(Deps{Config: testConfig(b), Store: store})
	require.NoError(t, err)
	defer s.Close()

	s.Gate().MarkHydrated()
	_, err = s.Mount(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.SetCredential(context.Background(), " sk-typed "))
	assert.Equal(t, "sk-typed", s.Credential())

	out, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, completion.Idle, s.Orchestrator().State())
}

func TestAppConfigThemeChangeReappliesTheme(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)
	defer s.Close()

	s.Gate().MarkHydrated()
	_, err = s.Mount(context.Background())
	require.NoError(t, err)
	require.True(t, s.Document().HasClass("dark"))

	s.AppConfig().SetTheme(config.ThemeLight)
	assert.True(t, s.Document().HasClass("light"))
	assert.False(t, s.Document().HasClass("dark"))
}

func TestClose_Idempotent(t *testing.T) {
	b := newBackend(t)
	s, err := New(Deps{Config: testConfig(b), Store: openStore(t)})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Mount(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
