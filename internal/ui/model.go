// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the interactive terminal view of orchat.
//
// The view follows the Bubble Tea architecture: Model holds the state,
// Update handles messages and View renders. The first WindowSizeMsg marks
// the session hydrated; until then View draws a placeholder and the
// session performs no I/O.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/orchat/internal/completion"
	"github.com/jeranaias/orchat/internal/session"
	"github.com/jeranaias/orchat/internal/ui/styles"
)

const (
	headerHeight = 1
	footerHeight = 3
)

// Model is the main Bubble Tea model.
type Model struct {
	ctx    context.Context
	sess   *session.Session
	events chan tea.Msg

	theme    *styles.Theme
	renderer *glamour.TermRenderer
	keys     KeyMap

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width   int
	height  int
	ready   bool
	mounted bool

	loading     bool
	response    string
	hasResponse bool
	notice      string
	preferred   string
}

// New creates the model for sess. Session callbacks are bridged into the
// program through a buffered channel.
func New(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask anything, or /help"
	ti.Prompt = "> "
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		sess:     sess,
		events:   make(chan tea.Msg, 16),
		keys:     DefaultKeyMap(),
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}

	events := m.events
	sess.OnNotice(func(n session.Notice) {
		select {
		case events <- noticeMsg{notice: n}:
		default:
		}
	})
	sess.AppConfig().OnThemeChange(func(string) {
		select {
		case events <- themeChangedMsg{}:
		default:
		}
	})

	return m.refreshTheme()
}

// WithModel selects id once the catalog has loaded, overriding the
// default first entry.
func (m Model) WithModel(id string) Model {
	m.preferred = id
	return m
}

// Init starts the mount effects and the event bridge. Mount itself blocks
// on the hydration gate.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.mountCmd(),
		waitForEvent(m.events),
	)
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleResize(msg)
		if !m.ready {
			m.ready = true
			m.sess.Gate().MarkHydrated()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case mountDoneMsg:
		m.mounted = true
		if m.preferred != "" {
			m.sess.Catalog().Select(m.preferred)
		}
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.notice = m.theme.RenderError(msg.err.Error())
		}
		if msg.report.Redeem.Applied {
			m.notice = m.theme.RenderSuccess("API key received")
		}
		m = m.refreshTheme()
		return m, nil

	case noticeMsg:
		m.notice = m.theme.RenderError(msg.notice.String())
		return m, waitForEvent(m.events)

	case themeChangedMsg:
		m = m.refreshTheme()
		return m, waitForEvent(m.events)

	case completionDoneMsg:
		m.loading = m.sess.Orchestrator().State() == completion.Loading
		switch {
		case msg.err == nil:
			m.setOutput(msg.out, true)
		case errors.Is(msg.err, completion.ErrInFlight):
			m.notice = m.theme.RenderWarning("a request is already in flight")
		}
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.notice = m.theme.RenderError(msg.err.Error())
		} else {
			m.notice = m.theme.RenderSuccess(msg.info)
		}
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	bodyHeight := msg.Height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = bodyHeight
	m.input.Width = msg.Width - runewidth.StringWidth(m.input.Prompt) - 1

	m.renderer = newRenderer(m.theme, msg.Width)
	m.rerender()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key dismisses the current notice.
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		line := strings.TrimSpace(m.input.Value())
		if line == "" {
			return m, nil
		}
		m.input.Reset()
		if strings.HasPrefix(line, "/") {
			return m.handleCommand(line)
		}
		if !m.mounted {
			m.notice = m.theme.RenderWarning("still starting up")
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.submitCmd(line), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Response returns the last markdown shown in the body.
func (m Model) Response() string {
	return m.response
}

// Ready reports whether the first frame has been sized.
func (m Model) Ready() bool {
	return m.ready
}

func (m Model) mountCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		report, err := sess.Mount(ctx)
		return mountDoneMsg{report: report, err: err}
	}
}

func (m Model) submitCmd(prompt string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		out, err := sess.Submit(ctx, prompt)
		return completionDoneMsg{prompt: prompt, out: out, err: err}
	}
}

// refreshTheme rebuilds styles from the current Document state.
func (m Model) refreshTheme() Model {
	theme := styles.FromDocument(m.sess.Document().Snapshot())
	theme.SetSize(m.width, m.height)
	m.theme = theme

	sp := m.spinner
	sp.Style = theme.Spinner
	m.spinner = sp
	m.input.PromptStyle = theme.Prompt
	m.input.PlaceholderStyle = theme.Placeholder

	if m.width > 0 {
		m.renderer = newRenderer(theme, m.width)
	}
	m.rerender()
	return m
}

// setOutput replaces the body. Markdown output goes through glamour.
func (m *Model) setOutput(text string, markdown bool) {
	if markdown {
		m.response = text
		m.hasResponse = true
		m.rerender()
		return
	}
	m.response = ""
	m.hasResponse = false
	m.viewport.SetContent(text)
	m.viewport.GotoTop()
}

// rerender redraws the last completion result. An empty result clears the
// body.
func (m *Model) rerender() {
	if !m.hasResponse {
		return
	}
	content := m.response
	if content != "" && m.renderer != nil {
		if out, err := m.renderer.Render(m.response); err == nil {
			content = out
		}
	}
	m.viewport.SetContent(content)
}

func newRenderer(theme *styles.Theme, width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}
