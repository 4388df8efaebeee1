// orchat - chat with OpenRouter models from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/orchat/internal/cli"
	"github.com/jeranaias/orchat/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd, args := cli.Parse(os.Args[1:])

	var code int
	if cmd == cli.CmdTUI {
		code = runTUI(ctx, args)
	} else {
		code = cli.Run(ctx, cmd, args, cli.StdEnv())
	}

	stop()
	os.Exit(code)
}

// runTUI starts the interactive interface.
func runTUI(ctx context.Context, args cli.Args) int {
	env := cli.StdEnv()
	if err := cli.RequiresTTY(os.Stdout, "start the TUI"); err != nil {
		cli.DisplayError(env.Stderr, err, false)
		return cli.ExitUsageError
	}

	rt, err := cli.Open(args, env, cli.OpenOptions{Interactive: true})
	if err != nil {
		cli.DisplayError(env.Stderr, err, false)
		return cli.ExitCode(err)
	}
	defer rt.Close()

	rt.Logger.Info("starting orchat", "version", Version, "session", rt.Session.ID())

	m := ui.New(ctx, rt.Session).WithModel(args.Model)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error running orchat: %v\n", err)
		return cli.ExitGeneralError
	}
	return cli.ExitSuccess
}
