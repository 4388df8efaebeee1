// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the orchat TUI.

# Color System (colors.go)

Colors are Lip Gloss AdaptiveColor pairs. Unlike the usual automatic
light/dark choice, the Theme resolves each pair itself: the Document's
"dark" or "light" root class forces a side, and only when neither is set
does the terminal background decide (termenv.HasDarkBackground).

# Accent

The accent comes from the Document's theme-color hint for the active side.
With the auto theme those hints are #151515 (dark) and #fafafa (light);
otherwise both carry ui.theme_color.

# Usage

	theme := styles.FromDocument(doc.Snapshot())
	theme.SetSize(width, height)
	fmt.Println(theme.RenderError("model catalog: unreachable"))
*/
package styles
