// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the orchat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/orchat/internal/shell"
)

// Theme holds the styled components for one Document state.
type Theme struct {
	// IsDark is true for the dark class, false for light, and follows the
	// terminal background when neither class is set.
	IsDark bool
	// Accent is the theme-color hint for the active slot.
	Accent lipgloss.Color
	// Version is the Document version the theme was built from.
	Version uint64

	Width  int
	Height int

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	HeaderModel  lipgloss.Style
	Prompt       lipgloss.Style
	Placeholder  lipgloss.Style
	Response     lipgloss.Style
	StatusBar    lipgloss.Style
	Spinner      lipgloss.Style
	Muted        lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// darkBackground is swapped in tests.
var darkBackground = termenv.HasDarkBackground

// FromDocument builds a theme from a Document snapshot.
func FromDocument(snap shell.Snapshot) *Theme {
	t := &Theme{Version: snap.Version}

	switch {
	case hasClass(snap.Classes, "dark"):
		t.IsDark = true
	case hasClass(snap.Classes, "light"):
		t.IsDark = false
	default:
		t.IsDark = darkBackground()
	}

	slot := shell.HintLight
	if t.IsDark {
		slot = shell.HintDark
	}
	if hint := snap.Hints[slot]; hint != "" {
		t.Accent = lipgloss.Color(hint)
	} else {
		t.Accent = t.pick(Cyan)
	}

	t.initStyles()
	return t
}

func hasClass(classes []string, name string) bool {
	for _, c := range classes {
		if c == name {
			return true
		}
	}
	return false
}

// pick resolves an adaptive color against the theme instead of the
// terminal, so a forced light or dark class wins over detection.
func (t *Theme) pick(c lipgloss.AdaptiveColor) lipgloss.Color {
	if t.IsDark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.pick(Cyan)).
		Background(t.pick(SurfaceDim)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(t.Accent).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.pick(Purple))

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(t.pick(TextSecondary)).
		Italic(true)

	t.Prompt = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(t.pick(TextMuted)).
		Italic(true)

	t.Response = lipgloss.NewStyle().
		Foreground(t.pick(TextPrimary)).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Background(t.pick(SurfaceDim)).
		Foreground(t.pick(TextSecondary)).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().Foreground(t.pick(Amber))
	t.Muted = lipgloss.NewStyle().Foreground(t.pick(TextMuted))

	t.SuccessStyle = lipgloss.NewStyle().Foreground(t.pick(Emerald)).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(t.pick(Rose)).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(t.pick(Amber)).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(t.pick(Cyan)).Bold(true)
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// RenderError renders an error line with its text indicator.
func (t *Theme) RenderError(message string) string {
	return t.ErrorStyle.Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning line with its text indicator.
func (t *Theme) RenderWarning(message string) string {
	return t.WarningStyle.Render(StatusIndicators.Warning + " " + message)
}

// RenderSuccess renders a success line with its text indicator.
func (t *Theme) RenderSuccess(message string) string {
	return t.SuccessStyle.Render(StatusIndicators.Success + " " + message)
}

// RenderInfo renders an info line with its text indicator.
func (t *Theme) RenderInfo(message string) string {
	return t.InfoStyle.Render(StatusIndicators.Info + " " + message)
}
