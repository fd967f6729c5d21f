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

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"reviewkit/internal/tools"
)

// Environment variables that override file settings.
const (
	EnvRoot     = "REVIEWKIT_ROOT"
	EnvLogLevel = "REVIEWKIT_LOG_LEVEL"
)

// Config represents the application configuration
type Config struct {
	Root    string        `json:"root,omitempty"`
	Tools   ToolSettings  `json:"tools,omitempty"`
	Limits  ToolLimits    `json:"limits,omitempty"`
	Logging LoggingConfig `json:"logging,omitempty"`
}

// ToolSettings describes which tools may run and how often.
type ToolSettings struct {
	Allow []string `json:"allow,omitempty"`
	// TimeoutSeconds bounds each tool call; zero disables the deadline.
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty"`
	// RatePerMinute caps calls per tool; zero disables rate limiting.
	RatePerMinute int `json:"rate_per_minute,omitempty"`
}

// ToolLimits configures resource limits for tool execution.
type ToolLimits struct {
	MaxReadBytes     int64 `json:"max_read_bytes,omitempty"`
	MaxFileSizeBytes int64 `json:"max_file_size_bytes,omitempty"`
	MaxGlobResults   int   `json:"max_glob_results,omitempty"`
	MaxGrepResults   int   `json:"max_grep_results,omitempty"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level string `json:"level,omitempty"`
	File  string `json:"file,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	defaults := tools.DefaultLimits()
	return &Config{
		Root: ".",
		Limits: ToolLimits{
			MaxReadBytes:     defaults.MaxReadBytes,
			MaxFileSizeBytes: defaults.MaxFileSizeBytes,
			MaxGlobResults:   defaults.MaxGlobResults,
			MaxGrepResults:   defaults.MaxGrepResults,
		},
		Logging: LoggingConfig{Level: zerolog.InfoLevel.String()},
	}
}

// LoadConfig loads configuration from a JSON or YAML file (chosen by
// extension) and applies env overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			normalized, err := normalizeConfig(data, isYAML(path))
			if err != nil {
				return nil, fmt.Errorf("invalid config %s: %w", path, err)
			}
			if err := json.Unmarshal(normalized, config); err != nil {
				return nil, fmt.Errorf("invalid config %s: %w", path, err)
			}
		}
	}

	if val := os.Getenv(EnvRoot); val != "" {
		config.Root = val
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		config.Logging.Level = val
	}

	if strings.TrimSpace(config.Root) == "" {
		config.Root = "."
	}
	if config.Logging.Level == "" {
		config.Logging.Level = zerolog.InfoLevel.String()
	}

	return config, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// LogLevel parses the configured level, falling back to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// ToolLimitsConfig returns tool limits for runtime enforcement.
func (c *Config) ToolLimitsConfig() tools.Limits {
	return tools.Limits{
		MaxReadBytes:     c.Limits.MaxReadBytes,
		MaxFileSizeBytes: c.Limits.MaxFileSizeBytes,
		MaxGlobResults:   c.Limits.MaxGlobResults,
		MaxGrepResults:   c.Limits.MaxGrepResults,
	}
}

// ToolOptions maps the configuration onto registry options.
func (c *Config) ToolOptions(logger zerolog.Logger) tools.Options {
	var allow []string
	if c.Tools.Allow != nil {
		allow = append([]string{}, c.Tools.Allow...)
	}
	var timeouts tools.TimeoutConfig
	if c.Tools.TimeoutSeconds > 0 {
		timeouts.Default = time.Duration(c.Tools.TimeoutSeconds * float64(time.Second))
	}
	var rates tools.RateLimitConfig
	if c.Tools.RatePerMinute > 0 {
		rates.PerMinute = c.Tools.RatePerMinute
	}
	return tools.Options{
		Root:       c.Root,
		Limits:     c.ToolLimitsConfig(),
		Allow:      allow,
		Timeouts:   timeouts,
		RateLimits: rates,
		Logger:     logger,
	}
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate(registry *tools.Registry) []ValidationWarning {
	var warnings []ValidationWarning

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			warnings = append(warnings, ValidationWarning{
				Field:   "logging.level",
				Message: fmt.Sprintf("unknown log level %q, using info", c.Logging.Level),
			})
		}
	}

	limits := []struct {
		field string
		value int64
	}{
		{"limits.max_read_bytes", c.Limits.MaxReadBytes},
		{"limits.max_file_size_bytes", c.Limits.MaxFileSizeBytes},
		{"limits.max_glob_results", int64(c.Limits.MaxGlobResults)},
		{"limits.max_grep_results", int64(c.Limits.MaxGrepResults)},
	}
	for _, limit := range limits {
		if limit.value <= 0 {
			warnings = append(warnings, ValidationWarning{
				Field:   limit.field,
				Message: fmt.Sprintf("%s %d should be positive, using default", limit.field, limit.value),
			})
		}
	}
	if c.Limits.MaxReadBytes > 0 && c.Limits.MaxReadBytes < tools.DefaultReadBytes {
		warnings = append(warnings, ValidationWarning{
			Field:   "limits.max_read_bytes",
			Message: fmt.Sprintf("max_read_bytes %d is below the default read size %d", c.Limits.MaxReadBytes, tools.DefaultReadBytes),
		})
	}

	if c.Tools.TimeoutSeconds < 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "tools.timeout_seconds",
			Message: fmt.Sprintf("timeout_seconds %g is negative, tool calls run without a deadline", c.Tools.TimeoutSeconds),
		})
	}
	if c.Tools.RatePerMinute < 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "tools.rate_per_minute",
			Message: fmt.Sprintf("rate_per_minute %d is negative, tool calls are not rate limited", c.Tools.RatePerMinute),
		})
	}

	// Validate tool policy against registered tools
	if registry != nil {
		registeredTools := make(map[string]bool)
		for _, name := range registry.GetToolNames() {
			registeredTools[name] = true
		}
		for _, toolName := range c.Tools.Allow {
			if !registeredTools[toolName] {
				warnings = append(warnings, ValidationWarning{
					Field:   "tools.allow",
					Message: fmt.Sprintf("tool %q in allow list is not registered", toolName),
				})
			}
		}
	}

	return warnings
}

// decodeYAML converts YAML into the generic map form the JSON validator
// expects.
func decodeYAML(data []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}
