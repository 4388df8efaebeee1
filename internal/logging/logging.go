// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the process logger. The terminal belongs to the
// UI, so records go to a rotating JSON file unless a headless command asks
// for stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/storage"
)

// Options selects where records go.
type Options struct {
	// Stderr, when non-nil, receives text records instead of the file.
	Stderr io.Writer
	// Verbose forces debug level.
	Verbose bool
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger for cfg and a closer that flushes the log file.
// An empty cfg.File discards records.
func New(cfg config.LogConfig, opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Stderr != nil {
		return slog.New(slog.NewTextHandler(opts.Stderr, handlerOpts)), nopCloser{}, nil
	}

	if cfg.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, handlerOpts)), nopCloser{}, nil
	}

	path, err := storage.ExpandPath(cfg.File)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   false,
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts)), w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
