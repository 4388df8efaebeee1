// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// key_cmd.go - API key management.
//
// Command: key [set|show|clear]
//
// Examples:
//   orchat key set sk-or-v1-...
//   echo "$OPENROUTER_KEY" | orchat key set
//   orchat key show
//   orchat key clear
//
// The key itself is never printed; show reports its length and fingerprint.
package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/jeranaias/orchat/internal/keystore"
)

// HandleKey dispatches the key subcommands.
func HandleKey(ctx context.Context, rt *Runtime, args Args, env Env) error {
	switch args.Subcommand {
	case "set":
		return handleKeySet(ctx, rt, args, env)
	case "show", "":
		return handleKeyShow(ctx, rt, args, env)
	case "clear", "rm", "delete":
		if err := rt.Session.SetCredential(ctx, ""); err != nil {
			return NewCommandError("key", "clear", err)
		}
		if args.JSON {
			return NewJSONResponse("key clear", KeyData{}).Print(env.Stdout)
		}
		fmt.Fprintln(env.Stdout, "API key cleared.")
		return nil
	default:
		return &UsageError{Reason: "unknown key subcommand: " + args.Subcommand, Example: "orchat key show"}
	}
}

func handleKeySet(ctx context.Context, rt *Runtime, args Args, env Env) error {
	key := args.Parser.Positional(1)
	if key == "" && env.Stdin != nil && !isTerminal(env.Stdin) {
		scanner := bufio.NewScanner(env.Stdin)
		if scanner.Scan() {
			key = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			return NewCommandError("key", "set", err)
		}
	}
	if key == "" {
		return ErrMissingArgument("KEY", "orchat key set sk-or-v1-...")
	}

	if err := rt.Session.SetCredential(ctx, key); err != nil {
		return NewCommandError("key", "set", err)
	}
	stored := rt.Session.Credential()
	if args.JSON {
		return NewJSONResponse("key set", keyData(stored)).Print(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "API key stored %s\n", keystore.Masked(stored))
	return nil
}

func handleKeyShow(ctx context.Context, rt *Runtime, args Args, env Env) error {
	stored, err := keystore.New(rt.Store).Load(ctx)
	if err != nil {
		return NewCommandError("key", "show", err)
	}
	if args.JSON {
		return NewJSONResponse("key show", keyData(stored)).Print(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "API key: %s\n", keystore.Masked(stored))
	return nil
}

func keyData(key string) KeyData {
	if key == "" {
		return KeyData{}
	}
	return KeyData{Set: true, Length: len(key), Fingerprint: keystore.Fingerprint(key)}
}
