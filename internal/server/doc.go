// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the loopback HTTP receiver for the OAuth redirect.
//
// The provider sends the browser to the configured callback URL with a
// "code" query parameter. Receiver listens on that URL's loopback address,
// captures the first request that carries a code and hands its query to
// the caller, which redeems it like any other callback.
//
// # Security Features
//
//   - Loopback addresses only; other hosts are refused at construction
//   - Security headers on every response
//   - Panic recovery so a bad request cannot take the process down
//
// # Usage
//
//	rcv, err := server.NewReceiver("http://localhost:3000/", logger)
//	if err != nil {
//		return err
//	}
//	if err := rcv.Start(); err != nil {
//		return err
//	}
//	defer rcv.Shutdown(context.Background())
//	query, err := rcv.Wait(ctx)
package server
