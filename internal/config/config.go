// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for orchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.orchat/config.toml
//   - ~/.orchat/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/jeranaias/orchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete orchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// API holds the completion backend endpoints.
	API APIConfig `toml:"api" json:"api" envPrefix:"API_"`

	// Catalog configures the public model directory.
	Catalog CatalogConfig `toml:"catalog" json:"catalog" envPrefix:"CATALOG_"`

	// OAuth configures code redemption.
	OAuth OAuthConfig `toml:"oauth" json:"oauth" envPrefix:"OAUTH_"`

	// Completion configures the request orchestrator.
	Completion CompletionConfig `toml:"completion" json:"completion" envPrefix:"COMPLETION_"`

	// Storage configures the local key/value store.
	Storage StorageConfig `toml:"storage" json:"storage" envPrefix:"STORAGE_"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui" envPrefix:"UI_"`

	// Log configures the rotating log file.
	Log LogConfig `toml:"log" json:"log" envPrefix:"LOG_"`
}

// APIConfig contains the completion backend configuration.
type APIConfig struct {
	// BaseURL is the origin that serves /api/completions and /api/oauth.
	BaseURL string `toml:"base_url" json:"base_url" env:"BASE_URL"`
	// CompletionsURL overrides <base_url>/api/completions.
	CompletionsURL string `toml:"completions_url" json:"completions_url" env:"COMPLETIONS_URL"`
	// ModelsURL is the remote model source for the config gateway.
	// Empty means the catalog directory is used.
	ModelsURL string `toml:"models_url" json:"models_url" env:"MODELS_URL"`
	// UserAgent is sent on every request.
	UserAgent string `toml:"user_agent" json:"user_agent" env:"USER_AGENT"`
}

// CatalogConfig contains model directory configuration.
type CatalogConfig struct {
	URL string `toml:"url" json:"url" env:"URL"`
	// TimeoutSecs bounds each directory request. 0 disables the bound.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" env:"TIMEOUT_SECS"`
	// MaxRetries is the number of additional attempts after a transport
	// failure. 0 means a single attempt.
	MaxRetries int `toml:"max_retries" json:"max_retries" env:"MAX_RETRIES"`
}

// OAuthConfig contains OAuth code redemption configuration.
type OAuthConfig struct {
	// ExchangeURL overrides <base_url>/api/oauth.
	ExchangeURL string `toml:"exchange_url" json:"exchange_url" env:"EXCHANGE_URL"`
	// AuthURL is the provider page that issues codes.
	AuthURL string `toml:"auth_url" json:"auth_url" env:"AUTH_URL"`
	// CallbackURL is passed to AuthURL as callback_url.
	CallbackURL string `toml:"callback_url" json:"callback_url" env:"CALLBACK_URL"`
	// ApplyKey persists a key returned by the exchange and makes it the
	// session credential. When false the key is ignored.
	ApplyKey bool `toml:"apply_key" json:"apply_key" env:"APPLY_KEY"`
}

// CompletionConfig contains request orchestrator configuration.
type CompletionConfig struct {
	// Overlap is "reject" or "queue".
	Overlap string `toml:"overlap" json:"overlap" env:"OVERLAP"`
	// TimeoutSecs bounds each completion request. 0 means no bound.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" env:"TIMEOUT_SECS"`
}

// StorageConfig contains local storage configuration.
type StorageConfig struct {
	// Driver is "sqlite" or "file".
	Driver string `toml:"driver" json:"driver" env:"DRIVER"`
	// Path is the database or JSON file. A leading ~/ is expanded.
	Path string `toml:"path" json:"path" env:"PATH"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	// Theme is "light", "dark" or "auto".
	Theme string `toml:"theme" json:"theme" env:"THEME"`
	// ThemeColor is the accent used for both theme-color hints when the
	// theme is not auto.
	ThemeColor string `toml:"theme_color" json:"theme_color" env:"THEME_COLOR"`
	// Language is a BCP 47 tag. Empty means detect from the environment.
	Language string `toml:"language" json:"language" env:"LANGUAGE"`
}

// LogConfig contains log file configuration.
type LogConfig struct {
	File       string `toml:"file" json:"file" env:"FILE"`
	Level      string `toml:"level" json:"level" env:"LEVEL"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" env:"MAX_BACKUPS"`
}

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Overlap policies.
const (
	OverlapReject = "reject"
	OverlapQueue  = "queue"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:   "http://localhost:3000",
			UserAgent: "orchat/0.1.0",
		},
		Catalog: CatalogConfig{
			URL:         "https://openrouter.ai/api/v1/models",
			TimeoutSecs: 15,
			MaxRetries:  3,
		},
		OAuth: OAuthConfig{
			AuthURL:     "https://openrouter.ai/auth",
			CallbackURL: "http://localhost:3000/",
			ApplyKey:    false,
		},
		Completion: CompletionConfig{
			Overlap:     OverlapReject,
			TimeoutSecs: 0,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "~/.orchat/storage.db",
		},
		UI: UIConfig{
			Theme:      ThemeAuto,
			ThemeColor: "#e7f8ff",
		},
		Log: LogConfig{
			File:       "~/.orchat/orchat.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// CompletionsEndpoint returns the completion URL.
func (c *Config) CompletionsEndpoint() string {
	if c.API.CompletionsURL != "" {
		return c.API.CompletionsURL
	}
	return strings.TrimRight(c.API.BaseURL, "/") + "/api/completions"
}

// ExchangeEndpoint returns the OAuth exchange URL.
func (c *Config) ExchangeEndpoint() string {
	if c.OAuth.ExchangeURL != "" {
		return c.OAuth.ExchangeURL
	}
	return strings.TrimRight(c.API.BaseURL, "/") + "/api/oauth"
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the orchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".orchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Locate returns the config file that Load would read: the TOML file if it
// exists, else the JSON file if it exists, else the TOML path.
func Locate() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// ensureSecurePermissions tightens a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default location. A missing file is
// not an error; defaults are used. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := Locate()
	if err != nil {
		return finish(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are decoded as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults restores defaults for string fields a file blanked out.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = defaults.API.UserAgent
	}
	if cfg.Catalog.URL == "" {
		cfg.Catalog.URL = defaults.Catalog.URL
	}
	if cfg.OAuth.AuthURL == "" {
		cfg.OAuth.AuthURL = defaults.OAuth.AuthURL
	}
	if cfg.Completion.Overlap == "" {
		cfg.Completion.Overlap = defaults.Completion.Overlap
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = defaults.Storage.Driver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.ThemeColor == "" {
		cfg.UI.ThemeColor = defaults.UI.ThemeColor
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path, choosing the format from the extension.
// Files are written atomically with 0600 permissions.
func Save(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# orchat configuration file\n")
	buf.WriteString("# Environment variables ORCHAT_<SECTION>_<KEY> override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	checkURL := func(field, raw string, required bool) {
		if raw == "" {
			if required {
				errs = append(errs, ValidationError{field, "must not be empty"})
			}
			return
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{field, fmt.Sprintf("invalid URL %q", raw)})
		}
	}

	checkURL("api.base_url", c.API.BaseURL, true)
	checkURL("api.completions_url", c.API.CompletionsURL, false)
	checkURL("api.models_url", c.API.ModelsURL, false)
	checkURL("catalog.url", c.Catalog.URL, true)
	checkURL("oauth.exchange_url", c.OAuth.ExchangeURL, false)
	checkURL("oauth.auth_url", c.OAuth.AuthURL, true)

	if c.Catalog.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{"catalog.timeout_secs", "must not be negative"})
	}
	if c.Catalog.MaxRetries < 0 || c.Catalog.MaxRetries > 10 {
		errs = append(errs, ValidationError{"catalog.max_retries", "must be between 0 and 10"})
	}
	if c.Completion.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{"completion.timeout_secs", "must not be negative"})
	}

	switch c.Completion.Overlap {
	case OverlapReject, OverlapQueue:
	default:
		errs = append(errs, ValidationError{"completion.overlap",
			fmt.Sprintf("must be %q or %q, got %q", OverlapReject, OverlapQueue, c.Completion.Overlap)})
	}

	switch c.Storage.Driver {
	case "sqlite", "file":
	default:
		errs = append(errs, ValidationError{"storage.driver",
			fmt.Sprintf("must be \"sqlite\" or \"file\", got %q", c.Storage.Driver)})
	}

	switch c.UI.Theme {
	case ThemeLight, ThemeDark, ThemeAuto:
	default:
		errs = append(errs, ValidationError{"ui.theme",
			fmt.Sprintf("must be light, dark or auto, got %q", c.UI.Theme)})
	}
	if !isHexColor(c.UI.ThemeColor) {
		errs = append(errs, ValidationError{"ui.theme_color",
			fmt.Sprintf("must be a #rrggbb color, got %q", c.UI.ThemeColor)})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"log.level",
			fmt.Sprintf("must be debug, info, warn or error, got %q", c.Log.Level)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// EnvPrefix prefixes every environment override, e.g. ORCHAT_UI_THEME.
const EnvPrefix = "ORCHAT_"

// ApplyEnvOverrides applies ORCHAT_<SECTION>_<KEY> environment variables.
// Unset variables leave the field unchanged.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "ui.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected a boolean, got %q", key, value)
		}
		field.SetBool(b)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		field.SetInt(int64(n))
	default:
		return fmt.Errorf("%s: unsupported field type %s", key, field.Type())
	}
	return nil
}

// lookup walks the struct by toml tag.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("%s is a section, not a value", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tomlName(f reflect.StructField) string {
	tag, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return tag
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tomlName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
