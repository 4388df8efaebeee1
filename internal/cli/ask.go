// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single prompt command.
//
// Command: ask [prompt]
//
// Examples:
//   orchat ask "What is the capital of France?"
//   orchat ask --model openai/gpt-4o "Summarize this" < notes.txt
//   orchat ask --json "Hello"
//
// Without a prompt argument the prompt is read from piped stdin.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/orchat/internal/ui/styles"
)

// ErrNoModel is returned by ask when no model could be selected.
var ErrNoModel = errors.New("no model selected (catalog is empty)")

// HandleAsk sends one prompt and prints the reply.
func HandleAsk(ctx context.Context, rt *Runtime, args Args, env Env) error {
	prompt, err := askPrompt(args, env)
	if err != nil {
		return err
	}

	report, err := rt.Mount(ctx)
	if err != nil {
		return NewCommandError("ask", "mount", err)
	}

	catalog := rt.Session.Catalog()
	if args.Model != "" {
		catalog.Select(args.Model)
	}
	if catalog.Selected() == "" {
		if report.CatalogErr != nil {
			return NewCommandError("ask", "load models", report.CatalogErr)
		}
		return NewCommandError("ask", "", ErrNoModel)
	}
	if rt.Session.Credential() == "" {
		fmt.Fprintln(env.Stderr, "warning: no API key stored (run \"orchat key set\")")
	}

	out, err := rt.Session.Submit(ctx, prompt)
	if err != nil {
		return NewCommandError("ask", "", err)
	}

	if args.JSON {
		return NewJSONResponse("ask", AskData{Model: catalog.Selected(), Response: out}).Print(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, renderMarkdown(rt, env.Stdout, out))
	return nil
}

// askPrompt returns the prompt from the arguments or piped stdin.
func askPrompt(args Args, env Env) (string, error) {
	prompt := strings.TrimSpace(args.Query)
	if prompt == "" && env.Stdin != nil && !isTerminal(env.Stdin) {
		data, err := io.ReadAll(io.LimitReader(env.Stdin, 1<<20))
		if err != nil {
			return "", fmt.Errorf("read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}
	if prompt == "" {
		return "", ErrMissingArgument("prompt", `orchat ask "What is Go?"`)
	}
	return prompt, nil
}

// renderMarkdown renders out with glamour when w shows colors.
func renderMarkdown(rt *Runtime, w io.Writer, out string) string {
	if !ColorsEnabled(w) {
		return out
	}
	theme := styles.FromDocument(rt.Session.Document().Snapshot())
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.GlamourStyle()),
		glamour.WithWordWrap(terminalWidth(w)-4),
	)
	if err != nil {
		return out
	}
	rendered, err := r.Render(out)
	if err != nil {
		return out
	}
	return strings.TrimRight(rendered, "\n")
}
