// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// placeholder is drawn before the first WindowSizeMsg.
const placeholder = "orchat"

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return placeholder
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.input.View(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("orchat")
	model := m.sess.Catalog().Selected()
	if model == "" {
		model = "no model"
	}
	right := m.theme.HeaderModel.Render(model + " · " + m.sess.Document().Lang())

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStatus() string {
	var line string
	switch {
	case m.loading:
		line = m.spinner.View() + " " + m.theme.Muted.Render("waiting for response")
	case m.notice != "":
		line = m.notice
	default:
		parts := make([]string, 0, len(m.keys.ShortHelp()))
		for _, b := range m.keys.ShortHelp() {
			h := b.Help()
			parts = append(parts, h.Key+" "+h.Desc)
		}
		line = m.theme.Muted.Render(strings.Join(parts, "  "))
	}
	if m.width > 0 {
		return m.theme.StatusBar.MaxWidth(m.width).Render(line)
	}
	return m.theme.StatusBar.Render(line)
}
