// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/keystore"
)

const helpText = `Commands:
  /key <api-key>    store the API key
  /key clear        remove the stored key
  /model <id>       select a model
  /models           list catalog models
  /theme <t>        light, dark or auto
  /help             show this help
  /quit             exit`

// handleCommand runs a slash command typed into the input.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/help":
		m.setOutput(helpText, false)
		return m, nil

	case "/key":
		if len(args) != 1 {
			m.notice = m.theme.RenderWarning("usage: /key <api-key> | /key clear")
			return m, nil
		}
		key := args[0]
		if key == "clear" {
			key = ""
		}
		sess, ctx := m.sess, m.ctx
		return m, func() tea.Msg {
			if err := sess.SetCredential(ctx, key); err != nil {
				return commandDoneMsg{err: err}
			}
			if key == "" {
				return commandDoneMsg{info: "API key cleared"}
			}
			return commandDoneMsg{info: "API key stored " + keystore.Masked(sess.Credential())}
		}

	case "/model":
		if len(args) != 1 {
			m.notice = m.theme.RenderWarning("usage: /model <id>")
			return m, nil
		}
		m.sess.Catalog().Select(args[0])
		m.notice = m.theme.RenderSuccess("model " + args[0])
		return m, nil

	case "/models":
		models := m.sess.Catalog().Models()
		if len(models) == 0 {
			m.notice = m.theme.RenderWarning("no models loaded")
			return m, nil
		}
		selected := m.sess.Catalog().Selected()
		var b strings.Builder
		for _, mod := range models {
			marker := "  "
			if mod.ID == selected {
				marker = "* "
			}
			fmt.Fprintf(&b, "%s%s\n", marker, mod.ID)
		}
		m.setOutput(b.String(), false)
		return m, nil

	case "/theme":
		if len(args) != 1 {
			m.notice = m.theme.RenderWarning("usage: /theme light|dark|auto")
			return m, nil
		}
		switch args[0] {
		case config.ThemeLight, config.ThemeDark, config.ThemeAuto:
			m.sess.AppConfig().SetTheme(args[0])
			m = m.refreshTheme()
			return m, nil
		default:
			m.notice = m.theme.RenderWarning("theme must be light, dark or auto")
			return m, nil
		}

	default:
		m.notice = m.theme.RenderWarning("unknown command " + name + ", try /help")
		return m, nil
	}
}
