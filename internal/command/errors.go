// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package command

import (
	"fmt"

	"github.com/samber/oops"
)

// Error codes for parse and dispatch failures.
const (
	CodeNotCommand     = "NOT_COMMAND"
	CodeUnknownCommand = "UNKNOWN_COMMAND"
	CodeMissingParams  = "MISSING_PARAMS"
)

// ErrNotCommand creates an error for input lacking the command prefix.
func ErrNotCommand() error {
	return oops.Code(CodeNotCommand).
		Errorf("input does not start with %q", string(Prefix))
}

// ErrUnknownCommand creates an error for an unrecognized command name.
func ErrUnknownCommand() error {
	return oops.Code(CodeUnknownCommand).
		Errorf("no such command")
}

// ErrMissingParams creates an error for a known-shape command issued
// without its required parameter.
func ErrMissingParams(name string) error {
	return oops.Code(CodeMissingParams).
		With("command", name).
		Errorf("command %s requires at least one parameter", name)
}

// RejectionText extracts the client-facing rejection line from a parse
// or dispatch error. Rejections are sent raw, without a prefix tag.
func RejectionText(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "No such command"
	}

	switch oopsErr.Code() {
	case CodeNotCommand:
		return "Enter command"
	case CodeMissingParams:
		name, _ := oopsErr.Context()["command"].(string)
		return fmt.Sprintf("Command %s requires at least one parameter.", name)
	case CodeUnknownCommand:
		return "No such command"
	default:
		return "No such command"
	}
}
