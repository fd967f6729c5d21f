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
	"time"

	"golang.org/x/time/rate"

	apperrors "reviewkit/internal/errors"
)

// RateLimitConfig caps how many calls per minute each tool accepts. Zero
// leaves a tool unlimited. Limited tools keep token-bucket state across
// calls on their Registry.
type RateLimitConfig struct {
	PerMinute int
	PerTool   map[string]int
}

func (c RateLimitConfig) perMinute(name string) int {
	if n, ok := c.PerTool[name]; ok {
		return n
	}
	return c.PerMinute
}

// newRateLimiters builds one token bucket per limited tool. The bucket holds
// a full minute of calls and refills evenly.
func newRateLimiters(config RateLimitConfig, names []string) map[string]*rate.Limiter {
	limiters := make(map[string]*rate.Limiter)
	for _, name := range names {
		n := config.perMinute(name)
		if n <= 0 {
			continue
		}
		limiters[name] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
	return limiters
}

// allowCall takes a token for the tool without waiting.
func (r *Registry) allowCall(name string) error {
	limiter, ok := r.limiters[name]
	if !ok || limiter.Allow() {
		return nil
	}
	return apperrors.Wrap(apperrors.CodeRateLimited, "tool "+name+" rate limit exceeded, retry later", ErrToolRateLimited)
}
