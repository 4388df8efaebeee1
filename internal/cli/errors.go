// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by all orchat commands.
//
// Commands always return errors and let Run decide how to display them
// and which exit code to use.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/orchat/internal/cloud"
	"github.com/jeranaias/orchat/internal/completion"
	"github.com/jeranaias/orchat/internal/config"
	"github.com/jeranaias/orchat/internal/hydrate"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the provider rejected the credential
	ExitAuthError = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "key", "redeem")
	Action  string // Action being performed (e.g., "set", "exchange")
	Err     error  // Underlying error
}

func (e *CommandError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid command-line input.
type UsageError struct {
	Reason  string
	Example string // Example of valid usage (optional)
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Reason, e.Example)
	}
	return e.Reason
}

// NewCommandError wraps err with the command that produced it.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// ErrMissingArgument returns a UsageError for a missing argument.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{Reason: "missing required argument: " + argName, Example: usage}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON when jsonMode is set.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		out := map[string]interface{}{
			"success":    false,
			"error":      err.Error(),
			"error_type": errorType(err),
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(out)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func errorType(err error) string {
	var usage *UsageError
	if errors.As(err, &usage) {
		return "usage_error"
	}
	switch cloud.KindOf(err) {
	case cloud.KindTransport:
		return "transport_error"
	case cloud.KindParse:
		return "parse_error"
	case cloud.KindValidation:
		return "validation_error"
	}
	return "generic_error"
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}

	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	if errors.As(err, &cfgErrs) || errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, cloud.ErrAuthFailed), errors.Is(err, cloud.ErrInsufficientCredits):
		return ExitAuthError
	case errors.Is(err, cloud.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, completion.ErrInFlight), errors.Is(err, hydrate.ErrNotHydrated):
		return ExitGeneralError
	}

	if cloud.KindOf(err) == cloud.KindTransport {
		return ExitNetworkError
	}
	return ExitGeneralError
}
