// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the headless commands of
// orchat.
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if cmd == cli.CmdTUI {
//	    // run the interactive program
//	}
//	os.Exit(cli.Run(ctx, cmd, args, cli.StdEnv()))
//
// # Commands Overview
//
//   - ask: send one prompt and print the reply
//   - models: list the model catalog
//   - key: store, show or clear the API key
//   - login, redeem: OAuth authorization and code exchange
//   - config: show and edit configuration
//   - version: build information
//
// Headless commands open the hydration gate immediately, so the session
// mounts as soon as the command starts. All commands support --json.
package cli
