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

// Limits configures size and result bounds for tool operations.
type Limits struct {
	// MaxReadBytes caps the maxBytes argument accepted by read.
	MaxReadBytes int64
	// MaxFileSizeBytes bounds files loaded whole by a full-buffer grep.
	MaxFileSizeBytes int64
	// MaxGlobResults caps the maxResults argument accepted by glob.
	MaxGlobResults int
	// MaxGrepResults caps the maxResults argument accepted by grep.
	MaxGrepResults int
}

const (
	defaultMaxReadBytes     int64 = 10 * 1024 * 1024
	defaultMaxFileSizeBytes int64 = 10 * 1024 * 1024
	defaultMaxGlobResults         = 5000
	defaultMaxGrepResults         = 2000

	// DefaultReadBytes is used when read is called without maxBytes.
	DefaultReadBytes int64 = 200000
	// DefaultGlobResults is used when glob is called without maxResults.
	DefaultGlobResults = 250
	// DefaultGrepResults is used when grep is called without maxResults.
	DefaultGrepResults = 200
)

// DefaultLimits returns the default resource limits for tool operations.
func DefaultLimits() Limits {
	return Limits{
		MaxReadBytes:     defaultMaxReadBytes,
		MaxFileSizeBytes: defaultMaxFileSizeBytes,
		MaxGlobResults:   defaultMaxGlobResults,
		MaxGrepResults:   defaultMaxGrepResults,
	}
}

func normalizeLimits(l Limits) Limits {
	if l.MaxReadBytes <= 0 {
		l.MaxReadBytes = defaultMaxReadBytes
	}
	if l.MaxFileSizeBytes <= 0 {
		l.MaxFileSizeBytes = defaultMaxFileSizeBytes
	}
	if l.MaxGlobResults <= 0 {
		l.MaxGlobResults = defaultMaxGlobResults
	}
	if l.MaxGrepResults <= 0 {
		l.MaxGrepResults = defaultMaxGrepResults
	}
	return l
}

// readBytes applies the default and cap to a requested read size.
func (l Limits) readBytes(requested int64) (int64, error) {
	if requested == 0 {
		return min(DefaultReadBytes, l.MaxReadBytes), nil
	}
	if requested < 0 {
		return 0, invalidArgs("invalid 'maxBytes' parameter: must be positive")
	}
	if requested > l.MaxReadBytes {
		return 0, invalidArgs("invalid 'maxBytes' parameter: must be at most %d", l.MaxReadBytes)
	}
	return requested, nil
}

func capResults(name string, requested, def, limit int) (int, error) {
	if requested == 0 {
		return min(def, limit), nil
	}
	if requested < 0 {
		return 0, invalidArgs("invalid '%s' parameter: must be positive", name)
	}
	if requested > limit {
		return 0, invalidArgs("invalid '%s' parameter: must be at most %d", name, limit)
	}
	return requested, nil
}
