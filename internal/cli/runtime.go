// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Per-invocation state shared by orchat commands.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/logging"
	"github.com/jeranaias/orchat/internal/session"
	"github.com/jeranaias/orchat/internal/storage"
)

// Env holds the standard streams a command reads and writes.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StdEnv returns the process streams.
func StdEnv() Env {
	return Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// OpenOptions tune how a Runtime is built.
type OpenOptions struct {
	// Interactive keeps logs off the terminal and watches the config file.
	Interactive bool
	// Query carries OAuth callback parameters into the session.
	Query url.Values
	// Configure, when set, may adjust the loaded config before the
	// session is built.
	Configure func(*config.Config)
}

// Runtime bundles the config, logger, store and session of one command.
type Runtime struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Store      storage.Storage
	Session    *session.Session

	logCloser io.Closer
}

// resolveConfigPath returns the --config path or the default location.
func resolveConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.Locate()
}

// loadConfig loads the effective configuration. A missing default file
// yields defaults; a missing --config file is an error.
func loadConfig(args Args) (*config.Config, string, error) {
	path, err := resolveConfigPath(args)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err := config.LoadFromPath(path)
		return cfg, path, err
	}
	if args.ConfigPath != "" {
		return nil, path, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
	}
	cfg, err := config.Load()
	return cfg, path, err
}

// Open loads config, starts logging, opens the store and builds the session.
func Open(args Args, env Env, opts OpenOptions) (*Runtime, error) {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	if opts.Configure != nil {
		opts.Configure(cfg)
	}

	logOpts := logging.Options{Verbose: args.Verbose}
	if args.Verbose && !opts.Interactive {
		logOpts.Stderr = env.Stderr
	}
	logger, logCloser, err := logging.New(cfg.Log, logOpts)
	if err != nil {
		return nil, fmt.Errorf("start logging: %w", err)
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	deps := session.Deps{
		Config: cfg,
		Store:  store,
		Query:  opts.Query,
		Logger: logger,
	}
	if opts.Interactive {
		if _, statErr := os.Stat(path); statErr == nil {
			deps.ConfigPath = path
		}
	}
	sess, err := session.New(deps)
	if err != nil {
		_ = store.Close()
		_ = logCloser.Close()
		return nil, err
	}

	return &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Store:      store,
		Session:    sess,
		logCloser:  logCloser,
	}, nil
}

// Mount opens the hydration gate at once and mounts the session. Headless
// commands have no first frame to wait for.
func (r *Runtime) Mount(ctx context.Context) (session.MountReport, error) {
	r.Session.Gate().MarkHydrated()
	return r.Session.Mount(ctx)
}

// Close closes the session (and with it the store) and the log file.
func (r *Runtime) Close() error {
	return errors.Join(r.Session.Close(), r.logCloser.Close())
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes a headless command and returns the process exit code.
func Run(ctx context.Context, cmd Command, args Args, env Env) int {
	err := run(ctx, cmd, args, env)
	if err == nil {
		return ExitSuccess
	}
	if args.JSON {
		DisplayError(env.Stdout, err, true)
	} else {
		DisplayError(env.Stderr, err, false)
	}
	return ExitCode(err)
}

func run(ctx context.Context, cmd Command, args Args, env Env) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(env.Stdout)
		return nil
	case CmdVersion:
		return HandleVersion(args, env)
	case CmdConfig:
		return HandleConfig(args, env)
	case CmdLogin:
		return HandleLogin(ctx, args, env)
	case CmdRedeem:
		return HandleRedeem(ctx, args, env)
	}

	rt, err := Open(args, env, OpenOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	switch cmd {
	case CmdAsk:
		return HandleAsk(ctx, rt, args, env)
	case CmdModels:
		return HandleModels(ctx, rt, args, env)
	case CmdKey:
		return HandleKey(ctx, rt, args, env)
	default:
		return &UsageError{Reason: "command cannot run headless", Example: "orchat help"}
	}
}

// HandleVersion prints version information.
func HandleVersion(args Args, env Env) error {
	if args.JSON {
		return NewJSONResponse("version", map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
		}).Print(env.Stdout)
	}
	PrintVersion(env.Stdout)
	return nil
}
