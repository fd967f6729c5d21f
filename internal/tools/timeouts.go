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
	"context"
	"time"
)

// TimeoutConfig bounds how long a single tool call may run. Zero means no
// deadline beyond the caller's context.
type TimeoutConfig struct {
	Default time.Duration
	PerTool map[string]time.Duration
}

// TimeoutForTool returns the deadline budget for a tool.
func (t TimeoutConfig) TimeoutForTool(name string) time.Duration {
	if timeout, ok := t.PerTool[name]; ok {
		return timeout
	}
	return t.Default
}

// withToolTimeout derives the context a tool runs under. Tools check it
// between files, so a long grep stops at the next file boundary.
func (t TimeoutConfig) withToolTimeout(ctx context.Context, name string) (context.Context, context.CancelFunc) {
	timeout := t.TimeoutForTool(name)
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
