// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orchat/internal/session"
)

// mountDoneMsg is sent when the session mount effects finish.
type mountDoneMsg struct {
	report session.MountReport
	err    error
}

// completionDoneMsg carries the outcome of one submission.
type completionDoneMsg struct {
	prompt string
	out    string
	err    error
}

// noticeMsg carries a session failure notice.
type noticeMsg struct {
	notice session.Notice
}

// themeChangedMsg signals that the document theme was reapplied.
type themeChangedMsg struct{}

// commandDoneMsg reports a slash command that ran in the background.
type commandDoneMsg struct {
	info string
	err  error
}

// waitForEvent delivers the next message pushed by session callbacks.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
