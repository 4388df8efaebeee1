// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/session"
	"github.com/jeranaias/orchat/internal/storage"
)

func newTestModel(t *testing.T) (Model, *session.Session) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"first/model"},{"id":"second/model"}]}`))
	})
	mux.HandleFunc("/api/completions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Catalog.URL = srv.URL + "/api/v1/models"
	cfg.Catalog.MaxRetries = 0
	cfg.UI.Theme = config.ThemeDark

	store, err := storage.Open(storage.DriverFile, filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	sess, err := session.New(session.Deps{Config: cfg, Store: store})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return New(context.Background(), sess), sess
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func mounted(t *testing.T) (Model, *session.Session) {
	t.Helper()
	m, sess := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, m.mountCmd()())
	return m, sess
}

func typeLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestPlaceholderUntilFirstResize(t *testing.T) {
	m, sess := newTestModel(t)

	assert.Equal(t, placeholder, m.View())
	assert.False(t, m.Ready())
	assert.False(t, sess.Gate().Ready())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.True(t, m.Ready())
	assert.True(t, sess.Gate().Ready())
	assert.NotEqual(t, placeholder, m.View())
}

func TestMountAppliesThemeAndLoadsCatalog(t *testing.T) {
	m, sess := mounted(t)

	assert.True(t, m.mounted)
	assert.True(t, sess.Document().HasClass("dark"))
	assert.True(t, m.theme.IsDark)
	assert.Equal(t, "first/model", sess.Catalog().Selected())
	assert.Contains(t, m.View(), "first/model")
}

func TestSubmitRendersResponse(t *testing.T) {
	m, _ := mounted(t)

	m, cmd := typeLine(t, m, "hi")
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Empty(t, m.input.Value())

	m, _ = update(t, m, m.submitCmd("hi")())
	assert.False(t, m.loading)
	assert.Equal(t, "hello", m.Response())
}

func TestEmptyReplyClearsPreviousAnswer(t *testing.T) {
	m, _ := mounted(t)

	m, _ = update(t, m, completionDoneMsg{prompt: "one", out: "firstanswer"})
	require.Contains(t, m.View(), "firstanswer")

	m, _ = update(t, m, completionDoneMsg{prompt: "two", out: ""})
	assert.Equal(t, "", m.Response())
	assert.NotContains(t, m.View(), "firstanswer")
}

func TestSubmitBeforeMountIsRefused(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := typeLine(t, m, "hi")
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.NotEmpty(t, m.notice)
}

func TestNoticeClearedOnKeyPress(t *testing.T) {
	m, _ := mounted(t)

	m, cmd := update(t, m, noticeMsg{notice: session.Notice{Source: "completion", Err: assert.AnError}})
	require.NotNil(t, cmd)
	assert.Contains(t, m.notice, "completion")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Empty(t, m.notice)
}

func TestModelCommands(t *testing.T) {
	m, sess := mounted(t)

	m, _ = typeLine(t, m, "/model second/model")
	assert.Equal(t, "second/model", sess.Catalog().Selected())

	m, _ = typeLine(t, m, "/models")
	view := m.viewport.View()
	assert.Contains(t, view, "first/model")
	assert.Contains(t, view, "* second/model")
}

func TestThemeCommand(t *testing.T) {
	m, sess := mounted(t)

	m, _ = typeLine(t, m, "/theme light")
	assert.Equal(t, config.ThemeLight, sess.AppConfig().Theme())
	assert.True(t, sess.Document().HasClass("light"))
	assert.False(t, m.theme.IsDark)

	m, _ = typeLine(t, m, "/theme purple")
	assert.Equal(t, config.ThemeLight, sess.AppConfig().Theme())
	assert.Contains(t, m.notice, "theme must be")
}

func TestKeyCommand(t *testing.T) {
	m, sess := mounted(t)

	m, cmd := typeLine(t, m, "/key sk-or-abcdefgh1234")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, "sk-or-abcdefgh1234", sess.Credential())
	assert.NotContains(t, m.notice, "sk-or-abcdefgh1234")

	_, cmd = typeLine(t, m, "/key clear")
	require.NotNil(t, cmd)
	_ = cmd()
	assert.Empty(t, sess.Credential())
}

func TestUnknownCommand(t *testing.T) {
	m, _ := mounted(t)

	m, cmd := typeLine(t, m, "/nope")
	assert.Nil(t, cmd)
	assert.True(t, strings.Contains(m.notice, "/help"))
}

func TestQuit(t *testing.T) {
	m, _ := mounted(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPreferredModelAppliedAfterMount(t *testing.T) {
	m, sess := newTestModel(t)
	m = m.WithModel("second/model")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	_, _ = update(t, m, m.mountCmd()())

	assert.Equal(t, "second/model", sess.Catalog().Selected())
}
