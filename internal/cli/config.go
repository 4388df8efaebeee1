// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for orchat.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show configuration file path
//   init [--force]      Write a default configuration file
//   get <key>           Print one value (dot notation, e.g. ui.theme)
//   set <key> <value>   Set one value in the config file
//   keys                List all keys
//
// Examples:
//   orchat config show --json
//   orchat config set ui.theme light
//   orchat config set completion.overlap queue
//   orchat config get catalog.url
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/orchat/internal/config"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args, env Env) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args, env)
	case "path":
		return handleConfigPath(args, env)
	case "init":
		return handleConfigInit(args, env)
	case "get":
		return handleConfigGet(args, env)
	case "set":
		return handleConfigSet(args, env)
	case "keys":
		keys := config.GetAllKeys()
		if args.JSON {
			return NewJSONResponse("config keys", keys).Print(env.Stdout)
		}
		fmt.Fprintln(env.Stdout, strings.Join(keys, "\n"))
		return nil
	default:
		return &UsageError{Reason: "unknown config subcommand: " + args.Subcommand, Example: "orchat config show"}
	}
}

func handleConfigShow(args Args, env Env) error {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config show", cfg).Print(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "# %s\n%s\n", path, cfg.String())
	return nil
}

func handleConfigPath(args Args, env Env) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil
	if args.JSON {
		return NewJSONResponse("config path", map[string]interface{}{
			"path":   path,
			"exists": exists,
		}).Print(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, path)
	if !exists {
		fmt.Fprintln(env.Stderr, "(file does not exist; defaults are in use)")
	}
	return nil
}

func handleConfigInit(args Args, env Env) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil && !args.Parser.BoolFlag("force") {
		return &UsageError{Reason: "config file already exists: " + path, Example: "orchat config init --force"}
	}
	if err := config.Save(config.Default(), path); err != nil {
		return NewCommandError("config", "init", err)
	}
	if args.JSON {
		return NewJSONResponse("config init", map[string]string{"path": path}).Print(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "Wrote %s\n", path)
	return nil
}

func handleConfigGet(args Args, env Env) error {
	key := args.Parser.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "orchat config get ui.theme")
	}
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	val, err := cfg.Get(key)
	if err != nil {
		return &UsageError{Reason: err.Error(), Example: "orchat config keys"}
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{key: val}).Print(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, val)
	return nil
}

// handleConfigSet edits the file contents only; environment overrides are
// not written back.
func handleConfigSet(args Args, env Env) error {
	key, value := args.Parser.Positional(1), args.Parser.Positional(2)
	if key == "" || args.Parser.PositionalCount() < 3 {
		return ErrMissingArgument("key and value", "orchat config set ui.theme dark")
	}

	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return NewCommandError("config", "set", err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return NewCommandError("config", "set", statErr)
	}

	if err := cfg.Set(key, value); err != nil {
		return &UsageError{Reason: err.Error(), Example: "orchat config keys"}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return NewCommandError("config", "set", err)
	}

	if args.JSON {
		return NewJSONResponse("config set", map[string]string{key: value}).Print(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "Set %s = %s\n", key, value)
	return nil
}
