// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jeranaias/orchat/internal/cloud"
	"github.com/jeranaias/orchat/internal/completion"
	"github.com/jeranaias/orchat/internal/config"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"redeem", "--code", "abc"},
			wantSub: "redeem",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("code") != "abc" {
					t.Errorf("Flag(code) = %q, want %q", p.Flag("code"), "abc")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"redeem", "--callback-url=http://localhost:3000/?code=x"},
			wantSub: "redeem",
			validate: func(t *testing.T, p *ArgParser) {
				if got := p.Flag("callback-url"); got != "http://localhost:3000/?code=x" {
					t.Errorf("Flag(callback-url) = %q", got)
				}
			},
		},
		{
			name:    "declared boolean flag keeps next positional",
			args:    []string{"--json", "hello", "world"},
			wantSub: "hello",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
				if p.PositionalCount() != 2 {
					t.Errorf("PositionalCount() = %d, want 2", p.PositionalCount())
				}
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"--", "--not-a-flag", "x"},
			wantSub: "--not-a-flag",
			validate: func(t *testing.T, p *ArgParser) {
				if p.HasFlag("not-a-flag") {
					t.Error("flag after -- should be positional")
				}
			},
		},
		{
			name:    "trailing flag is boolean",
			args:    []string{"init", "--force"},
			wantSub: "init",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("force") {
					t.Error("BoolFlag(force) should be true")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, boolFlags...)
			if got := p.Subcommand(); got != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", got, tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	p := NewArgParser(nil)
	if p.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", p.Subcommand())
	}
	if p.Positional(0) != "" || p.Positional(-1) != "" {
		t.Error("Positional out of range should be empty")
	}
	if len(p.PositionalFrom(3)) != 0 {
		t.Error("PositionalFrom out of range should be empty")
	}
}

func TestArgParser_FlagOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--depth", "3"})
	if got := p.FlagOrDefault("depth", "1"); got != "3" {
		t.Errorf("FlagOrDefault(depth) = %q, want 3", got)
	}
	if got := p.FlagOrDefault("missing", "1"); got != "1" {
		t.Errorf("FlagOrDefault(missing) = %q, want 1", got)
	}
	n, err := p.FlagInt("depth")
	if err != nil || n != 3 {
		t.Errorf("FlagInt(depth) = %d, %v", n, err)
	}
	if _, err := p.FlagInt("missing"); err == nil {
		t.Error("FlagInt(missing) should error")
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "no args starts tui",
			args:        nil,
			wantCommand: CmdTUI,
		},
		{
			name:        "ask joins prompt",
			args:        []string{"ask", "What", "is", "Go?"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "What is Go?" {
					t.Errorf("Query = %q, want %q", a.Query, "What is Go?")
				}
			},
		},
		{
			name:        "global flags anywhere",
			args:        []string{"ask", "--model", "openai/gpt-4o", "Hello", "--json", "-v"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Model != "openai/gpt-4o" {
					t.Errorf("Model = %q", a.Model)
				}
				if !a.JSON || !a.Verbose {
					t.Errorf("JSON = %v, Verbose = %v, want both true", a.JSON, a.Verbose)
				}
				if a.Query != "Hello" {
					t.Errorf("Query = %q, want Hello", a.Query)
				}
			},
		},
		{
			name:        "config path flag",
			args:        []string{"--config=/tmp/o.toml", "config", "show"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/o.toml" {
					t.Errorf("ConfigPath = %q", a.ConfigPath)
				}
				if a.Subcommand != "show" {
					t.Errorf("Subcommand = %q, want show", a.Subcommand)
				}
			},
		},
		{
			name:        "key set",
			args:        []string{"key", "set", "sk-or-1"},
			wantCommand: CmdKey,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set" || a.Parser.Positional(1) != "sk-or-1" {
					t.Errorf("Subcommand = %q, key = %q", a.Subcommand, a.Parser.Positional(1))
				}
			},
		},
		{name: "models", args: []string{"models"}, wantCommand: CmdModels},
		{name: "redeem", args: []string{"redeem", "--code", "c"}, wantCommand: CmdRedeem},
		{name: "login", args: []string{"login"}, wantCommand: CmdLogin},
		{name: "version", args: []string{"version"}, wantCommand: CmdVersion},
		{name: "--version", args: []string{"--version"}, wantCommand: CmdVersion},
		{name: "help flag", args: []string{"models", "--help"}, wantCommand: CmdHelp},
		{
			name:        "bare words are a prompt",
			args:        []string{"hello", "there"},
			wantCommand: CmdAsk,
			validate: func(t *testing.T, a Args) {
				if a.Query != "hello there" {
					t.Errorf("Query = %q, want %q", a.Query, "hello there")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("Parse(%v) command = %v, want %v", tt.args, cmd, tt.wantCommand)
			}
			if args.Parser == nil {
				t.Fatal("Parser should always be set")
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// EXIT CODE TESTS (errors.go)
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", ErrMissingArgument("prompt", ""), ExitUsageError},
		{"config", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}), ExitConfigError},
		{"auth", &cloud.TransportError{Status: 401, Err: cloud.ErrAuthFailed}, ExitAuthError},
		{"not found", &cloud.TransportError{Status: 404, Err: cloud.ErrNotFound}, ExitNotFoundError},
		{"upstream", &cloud.TransportError{Status: 502, Err: cloud.ErrUpstream}, ExitNetworkError},
		{"in flight", NewCommandError("ask", "", completion.ErrInFlight), ExitGeneralError},
		{"other", errors.New("boom"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
