// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and usage text for orchat.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdModels
	CmdKey
	CmdRedeem
	CmdLogin
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose    bool
	JSON       bool
	ConfigPath string
	Model      string

	// Command-specific
	Query      string
	Subcommand string

	// Parser holds the parsed command arguments.
	Parser *ArgParser
}

// boolFlags never take a value.
var boolFlags = []string{"json", "verbose", "v", "apply", "listen", "force", "help", "h"}

const usageText = `orchat - chat with OpenRouter models from the terminal

Usage:
  orchat                         Start the TUI (default)
  orchat ask "question"          Send a single prompt and print the reply
  orchat models [--limit N]      List the model catalog
  orchat key set [KEY]           Store the API key (reads stdin without KEY)
  orchat key show                Show whether a key is stored (masked)
  orchat key clear               Remove the stored key
  orchat redeem --code CODE      Exchange an OAuth code for a key
  orchat redeem --callback-url URL
                                 Exchange the code carried by a callback URL
    --apply                      Store the received key
  orchat login                   Print the provider authorization URL
    --listen                     Receive the redirect and redeem it
    --timeout 5m                 How long to wait with --listen
  orchat config show             Show the effective configuration
  orchat config path             Print the config file path
  orchat config init             Write a default config file
  orchat config get KEY          Print one config value
  orchat config set KEY VALUE    Update one config value
  orchat version                 Show version information

Global Flags:
  --config PATH    Use this config file
  --model ID       Override the selected model
  --json           Output in JSON format
  -v, --verbose    Debug logging to stderr

Environment:
  ORCHAT_API_BASE_URL, ORCHAT_UI_THEME, ... override config values.

Version: %s
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "orchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		args.Parser = NewArgParser(nil, boolFlags...)
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Parser = NewArgParser(remaining, boolFlags...)
	args.Subcommand = args.Parser.Subcommand()

	if args.Parser.BoolFlag("help") || args.Parser.BoolFlag("h") {
		return CmdHelp, args
	}

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "ask":
		args.Query = JoinPositionalArgs(args.Parser, 0)
		return CmdAsk, args
	case "models":
		return CmdModels, args
	case "key":
		return CmdKey, args
	case "redeem":
		return CmdRedeem, args
	case "login":
		return CmdLogin, args
	case "config":
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		// Unknown words are treated as a prompt, like "orchat hello there".
		args.Query = strings.TrimSpace(cmd + " " + JoinPositionalArgs(args.Parser, 0))
		return CmdAsk, args
	}
}

// parseGlobalFlags removes global flags from argv wherever they appear.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	remaining := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--verbose" || arg == "-v":
			args.Verbose = true
		case arg == "--json":
			args.JSON = true
		case arg == "--config" && i+1 < len(argv):
			args.ConfigPath = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--model" && i+1 < len(argv):
			args.Model = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		case arg == "--":
			remaining = append(remaining, argv[i:]...)
			return remaining, args
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}
