// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"errors"
	"fmt"

	apperrors "reviewkit/internal/errors"
)

// Common tool errors
var (
	// ErrToolNotAllowed indicates a tool is blocked by the current policy.
	ErrToolNotAllowed = errors.New("tool blocked by policy")

	// ErrToolNotFound indicates the requested tool doesn't exist in the registry.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates tool arguments are invalid or malformed.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrToolAlreadyRegistered indicates a duplicate tool name.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrIncompatibleTool indicates a tool built for another host API version.
	ErrIncompatibleTool = errors.New("tool is not compatible with this host")

	// ErrToolRateLimited indicates the tool's call budget is exhausted.
	ErrToolRateLimited = errors.New("tool rate limited")
)

// NewToolExecutionError wraps a tool execution error with a shared error code.
// Errors that already carry a code are returned unchanged so callers can
// still branch on path_escape, size_limit_exceeded and friends.
func NewToolExecutionError(toolName, operation string, err error) error {
	if apperrors.CodeOf(err) != "" {
		return err
	}
	if operation != "" {
		return apperrors.Wrap(apperrors.CodeToolExecution, fmt.Sprintf("tool %s failed during %s", toolName, operation), err)
	}
	return apperrors.Wrap(apperrors.CodeToolExecution, fmt.Sprintf("tool %s failed", toolName), err)
}

// NewPermissionError wraps a permission error with a shared error code.
func NewPermissionError(toolName, reason string) *apperrors.Error {
	return apperrors.Wrap(apperrors.CodePermission, fmt.Sprintf("permission denied for tool %s: %s", toolName, reason), ErrToolNotAllowed)
}

// invalidArgs builds an invalid_arguments error that also matches
// ErrInvalidArguments.
func invalidArgs(format string, args ...interface{}) error {
	return apperrors.Wrap(apperrors.CodeInvalidArguments, fmt.Sprintf(format, args...), ErrInvalidArguments)
}
