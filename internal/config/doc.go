// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// # Key Types
//
//   - Config: the file-backed settings (api, catalog, oauth, completion,
//     storage, ui, log)
//   - AppConfig: the shared runtime gateway exposing Models and MergeModels
//   - Watcher: fsnotify-driven reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ORCHAT_<SECTION>_<KEY>, e.g. ORCHAT_UI_THEME)
//   - ~/.orchat/config.toml
//   - ~/.orchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app := config.NewAppConfig(cfg, source)
//	theme := app.Theme()
package config
