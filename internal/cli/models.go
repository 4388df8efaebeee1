// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// HandleModels prints the model catalog. The selected model is marked.
// --limit N prints only the first N entries.
func HandleModels(ctx context.Context, rt *Runtime, args Args, env Env) error {
	limit := 0
	if args.Parser.HasFlag("limit") {
		n, err := args.Parser.FlagInt("limit")
		if err != nil || n < 1 {
			return &UsageError{Reason: "--limit must be a positive integer", Example: "orchat models --limit 10"}
		}
		limit = n
	}

	report, err := rt.Mount(ctx)
	if err != nil {
		return NewCommandError("models", "mount", err)
	}
	if report.CatalogErr != nil {
		return NewCommandError("models", "load", report.CatalogErr)
	}

	catalog := rt.Session.Catalog()
	if args.Model != "" {
		catalog.Select(args.Model)
	}
	selected := catalog.Selected()

	models := catalog.Models()
	if limit > 0 && len(models) > limit {
		models = models[:limit]
	}
	data := make([]ModelData, 0, len(models))
	for _, m := range models {
		data = append(data, ModelData{
			ID:            m.ID,
			Name:          m.Name,
			ContextLength: m.ContextLength,
			Selected:      m.ID == selected,
		})
	}

	if args.JSON {
		return NewJSONResponse("models", data).Print(env.Stdout)
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No models available.")
		return nil
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	for _, m := range data {
		marker := " "
		if m.Selected {
			marker = "*"
		}
		ctxLen := ""
		if m.ContextLength > 0 {
			ctxLen = fmt.Sprintf("%d", m.ContextLength)
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, m.ID, m.Name, ctxLen)
	}
	return tw.Flush()
}
