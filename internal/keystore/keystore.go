// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keystore persists the completion API credential.
//
// The credential is a single opaque string kept under the "apiKey" item of
// the local store. An absent item reads as the empty credential.
package keystore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/jeranaias/orchat/internal/storage"
)

// ItemName is the local storage key holding the credential.
const ItemName = "apiKey"

// KeyStore reads and writes the credential through a storage.Storage.
type KeyStore struct {
	store storage.Storage
}

// New wraps store. The KeyStore does not own store and never closes it.
func New(store storage.Storage) *KeyStore {
	return &KeyStore{store: store}
}

// Load returns the stored credential, or "" when none has been saved.
func (k *KeyStore) Load(ctx context.Context) (string, error) {
	value, ok, err := k.store.GetItem(ctx, ItemName)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

// Save stores key, trimming surrounding whitespace. Saving an empty key
// removes the item.
func (k *KeyStore) Save(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return k.Clear(ctx)
	}
	if err := k.store.SetItem(ctx, ItemName, key); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Clear removes the stored credential.
func (k *KeyStore) Clear(ctx context.Context) error {
	if err := k.store.RemoveItem(ctx, ItemName); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Fingerprint returns a short SHA-256 based identifier for key, safe to log.
// It never contains any fragment of the key itself.
func Fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// Masked describes key for display without revealing it.
func Masked(key string) string {
	if key == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(key), Fingerprint(key))
}
