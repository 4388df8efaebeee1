// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/orchat/internal/shell"
)

func withBackground(t *testing.T, dark bool) {
	t.Helper()
	prev := darkBackground
	darkBackground = func() bool { return dark }
	t.Cleanup(func() { darkBackground = prev })
}

func TestFromDocument_ForcedClasses(t *testing.T) {
	withBackground(t, false)

	dark := FromDocument(shell.Snapshot{
		Classes: []string{"dark"},
		Hints:   map[string]string{shell.HintDark: "#e7f8ff", shell.HintLight: "#e7f8ff"},
	})
	if !dark.IsDark {
		t.Error("dark class should force a dark theme")
	}
	if dark.Accent != lipgloss.Color("#e7f8ff") {
		t.Errorf("Accent = %q, want #e7f8ff", dark.Accent)
	}
	if dark.GlamourStyle() != "dark" {
		t.Errorf("GlamourStyle = %q, want dark", dark.GlamourStyle())
	}

	withBackground(t, true)
	light := FromDocument(shell.Snapshot{Classes: []string{"light"}})
	if light.IsDark {
		t.Error("light class should force a light theme")
	}
	if light.Accent != lipgloss.Color(Cyan.Light) {
		t.Errorf("Accent without hint = %q, want %q", light.Accent, Cyan.Light)
	}
}

func TestFromDocument_AutoFollowsTerminal(t *testing.T) {
	hints := map[string]string{shell.HintDark: "#151515", shell.HintLight: "#fafafa"}

	withBackground(t, true)
	theme := FromDocument(shell.Snapshot{Hints: hints, Version: 7})
	if !theme.IsDark || theme.Accent != lipgloss.Color("#151515") {
		t.Errorf("auto on dark terminal: IsDark=%v Accent=%q", theme.IsDark, theme.Accent)
	}
	if theme.Version != 7 {
		t.Errorf("Version = %d, want 7", theme.Version)
	}

	withBackground(t, false)
	theme = FromDocument(shell.Snapshot{Hints: hints})
	if theme.IsDark || theme.Accent != lipgloss.Color("#fafafa") {
		t.Errorf("auto on light terminal: IsDark=%v Accent=%q", theme.IsDark, theme.Accent)
	}
}

func TestRenderHelpers(t *testing.T) {
	theme := FromDocument(shell.Snapshot{Classes: []string{"dark"}})

	tests := []struct {
		got       string
		indicator string
	}{
		{theme.RenderError("boom"), StatusIndicators.Error},
		{theme.RenderWarning("careful"), StatusIndicators.Warning},
		{theme.RenderSuccess("done"), StatusIndicators.Success},
		{theme.RenderInfo("fyi"), StatusIndicators.Info},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.indicator) {
			t.Errorf("%q missing indicator %q", tt.got, tt.indicator)
		}
	}
}

func TestSetSize(t *testing.T) {
	withBackground(t, true)
	theme := FromDocument(shell.Snapshot{})
	theme.SetSize(120, 40)
	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize: got %dx%d", theme.Width, theme.Height)
	}
}
