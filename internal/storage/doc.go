// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client-local key/value storage for orchat.
//
// It plays the role a browser's localStorage plays for a web client: a flat
// map of string keys to string values that survives restarts and is private
// to the current user.
//
// # Drivers
//
//   - "sqlite": a single-table SQLite database (modernc.org/sqlite, no cgo)
//   - "file":   a JSON object written atomically with 0600 permissions
//
// # Usage
//
//	store, err := storage.Open("sqlite", "~/.orchat/local.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.SetItem(ctx, "apiKey", key)
//	value, ok, err := store.GetItem(ctx, "apiKey")
//
// There is no cross-process change notification: a value written by one
// process is only observed by another on its next read.
package storage
