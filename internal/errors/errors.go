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

package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// Code identifies a class of error for programmatic handling.
type Code string

const (
	CodeMalformedHeader   Code = "malformed_header"
	CodePathEscape        Code = "path_escape"
	CodeNotAFile          Code = "not_a_file"
	CodeNotADirectory     Code = "not_a_directory"
	CodeSymlinkRejected   Code = "symlink_rejected"
	CodeSizeLimitExceeded Code = "size_limit_exceeded"
	CodeInvalidRegexFlags Code = "invalid_regex_flags"
	CodeInvalidArguments  Code = "invalid_arguments"
	CodeInvalidEncoding   Code = "invalid_encoding"
	CodeNotFound          Code = "not_found"
	CodeToolExecution     Code = "tool_execution"
	CodePermission        Code = "permission"
	CodeRateLimited       Code = "rate_limited"
)

// Error wraps an underlying error with a code and message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new coded error that wraps an underlying error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost coded error in err's chain, or "".
func CodeOf(err error) Code {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// SizeLimitError reports a file that is larger than the permitted limit.
type SizeLimitError struct {
	Limit  int64
	Actual int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file is %d bytes, limit is %d bytes", e.Actual, e.Limit)
}

// SizeLimit builds a size_limit_exceeded error for the given root-relative path.
func SizeLimit(path string, limit, actual int64) *Error {
	return Wrap(CodeSizeLimitExceeded, fmt.Sprintf("%s exceeds size limit", path), &SizeLimitError{Limit: limit, Actual: actual})
}

// FromFS maps a filesystem error to a coded error that only names the
// caller-supplied path. The *fs.PathError is dropped so absolute paths
// never reach the message.
func FromFS(path string, err error) *Error {
	var pathErr *fs.PathError
	if stderrors.As(err, &pathErr) {
		err = pathErr.Err
	}
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return Wrap(CodeNotFound, path, fs.ErrNotExist)
	case stderrors.Is(err, fs.ErrPermission):
		return Wrap(CodePermission, path, fs.ErrPermission)
	default:
		return Wrap(CodeToolExecution, path, err)
	}
}
