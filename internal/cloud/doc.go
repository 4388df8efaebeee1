// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud is the HTTP transport shared by the model catalog, the OAuth
// code exchange and the completion endpoint.
//
// Every response body is decoded into an explicit per-endpoint schema and
// validated before it is handed back, so a missing field becomes a typed
// error rather than a zero value.
//
// # Error taxonomy
//
//   - TransportError:  network failure or non-2xx status
//   - ParseError:      body is not the JSON it should be
//   - ValidationError: JSON decoded but required fields are absent
//
// Use KindOf to branch on the category, or errors.As for the details.
//
// # Usage
//
//	c := cloud.New(cloud.WithLogger(logger))
//	var resp cloud.ModelsResponse
//	if err := c.GetJSON(ctx, "list models", catalogURL, &resp); err != nil {
//	    return err
//	}
package cloud
