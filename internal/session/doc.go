// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session wires the components of one interactive session.
//
// # Lifecycle
//
// A Session is used in four steps:
//
//	s, err := session.New(deps)     // construct; no I/O
//	go s.Mount(ctx)                 // blocks on the hydration gate
//	s.Gate().MarkHydrated()         // host drew its first frame
//	defer s.Close()                 // unmount
//
// Mount reads the stored credential, applies theme and language, and then
// runs the remote model sync, the catalog load and the OAuth redemption
// check concurrently. None of them touch the network or the key store
// before the gate opens.
package session
