// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"github.com/samber/oops"
)

// Error codes for flag operations.
const (
	CodeInvalidParameters = "INVALID_PARAMETERS"
	CodeInvalidDefinition = "INVALID_DEFINITION"
	CodeUnknownFlag       = "UNKNOWN_FLAG"
)

// ErrInvalidParameters creates a validation rejection carrying a player-facing message.
func ErrInvalidParameters(message string) error {
	return oops.Code(CodeInvalidParameters).
		With("message", message).
		Errorf("%s", message)
}

// ErrInvalidDefinition creates an error for a definition that cannot be registered.
func ErrInvalidDefinition(name, reason string) error {
	return oops.Code(CodeInvalidDefinition).
		With("flag", name).
		Errorf("invalid flag definition %q: %s", name, reason)
}

// ErrUnknownFlag creates an error for a flag name with no registered definition.
func ErrUnknownFlag(name string) error {
	return oops.Code(CodeUnknownFlag).
		With("flag", name).
		With("message", "No flag named "+name+" is registered.").
		Errorf("unknown flag: %s", name)
}

// PlayerMessage extracts a player-facing message from an error.
func PlayerMessage(err error) string {
	if err == nil {
		return ""
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if msg, ok := oopsErr.Context()["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return err.Error()
}
