// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// Storage is a durable string key/value store.
//
// GetItem reports ok=false for a missing key; that is not an error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}

// Open returns a store for the given driver rooted at path.
// A leading "~/" in path is expanded to the user's home directory.
func Open(driver, path string) (Storage, error) {
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(resolved)
	case DriverFile:
		return OpenFile(resolved)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q (want %q or %q)", driver, DriverSQLite, DriverFile)
	}
}

// ExpandPath expands a leading "~/" to the current user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("storage: empty path")
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func validKey(key string) error {
	if key == "" {
		return errors.New("storage: empty key")
	}
	return nil
}
