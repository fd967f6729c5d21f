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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"reviewkit/internal/config"
	"reviewkit/internal/diff"
	"reviewkit/internal/tools"
)

func newDiffCmd(a *app) *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "diff [FILE]",
		Short: "Parse a unified diff into JSON",
		Long:  "Parse a git unified diff read from FILE, or from stdin when FILE is omitted or \"-\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			parsed := diff.ParseWithLogger(text, a.logger)
			a.logger.Debug().Int("files", len(parsed)).Msg("diff parsed")
			if stats {
				return a.printJSON(parsed.Stats())
			}
			return a.printJSON(parsed)
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "Print file and line counts only")
	return cmd
}

func (a *app) readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read diff: %w", err)
	}
	return string(data), nil
}

func newReadCmd(a *app) *cobra.Command {
	req := tools.ReadRequest{}
	cmd := &cobra.Command{
		Use:   "read PATH",
		Short: "Print the content of a file inside the root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			req.Path = args[0]
			result, err := registry.Read(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = io.WriteString(a.stdout, result.Content)
			return err
		},
	}
	cmd.Flags().StringVar(&req.Encoding, "encoding", tools.DefaultEncoding, "Text encoding of the file")
	cmd.Flags().Int64Var(&req.MaxBytes, "max-bytes", 0, "Largest file size to read (0 selects the default)")
	return cmd
}

func newGlobCmd(a *app) *cobra.Command {
	req := tools.GlobRequest{}
	cmd := &cobra.Command{
		Use:   "glob PATTERN",
		Short: "List files matching a glob pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			req.Pattern = args[0]
			result, err := registry.Glob(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
	cmd.Flags().StringVar(&req.Cwd, "cwd", "", "Directory the pattern is relative to")
	cmd.Flags().IntVar(&req.MaxResults, "max-results", 0, "Maximum number of matches (0 selects the default)")
	return cmd
}

func newGrepCmd(a *app) *cobra.Command {
	req := tools.GrepRequest{}
	cmd := &cobra.Command{
		Use:   "grep PATTERN [PATH...]",
		Short: "Search files for a regular expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			req.Pattern = args[0]
			req.Paths = args[1:]
			result, err := registry.Grep(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
	cmd.Flags().StringVar(&req.Flags, "flags", "", "Regex flags drawn from \"gimsu\"")
	cmd.Flags().IntVar(&req.MaxResults, "max-results", 0, "Maximum number of matches (0 selects the default)")
	cmd.Flags().StringVar(&req.Encoding, "encoding", tools.DefaultEncoding, "Text encoding of the searched files")
	return cmd
}

func newToolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the OpenAI function definitions of the allowed tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			return a.printJSON(registry.OpenAITools())
		},
	}
}

func newCallCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "call NAME [ARGS_JSON]",
		Short: "Execute a tool call the way a model would issue it",
		Long:  "Execute tool NAME with a JSON object of arguments, read from ARGS_JSON or from stdin when it is omitted or \"-\".",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			var arguments string
			if len(args) == 2 && args[1] != "-" {
				arguments = args[1]
			} else {
				arguments, err = a.readInput(nil)
				if err != nil {
					return err
				}
			}
			call := openai.ToolCall{
				ID:   "call_" + uuid.NewString(),
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      args[0],
					Arguments: arguments,
				},
			}
			a.logger.Debug().Str("call_id", call.ID).Str("tool", call.Function.Name).Bool("force", force).Msg("executing tool call")
			result := registry.ExecuteOpenAIToolCallWithOptions(cmd.Context(), call, tools.ExecuteOptions{Force: force})
			if result.Error != nil {
				return result.Error
			}
			_, err = fmt.Fprintln(a.stdout, result.Result)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Run the tool even if the allow list blocks it")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print configuration reference material",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "schema",
			Short: "Print the JSON schema of the config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(a.stdout, config.SchemaJSON())
				return err
			},
		},
		&cobra.Command{
			Use:   "example",
			Short: "Print an example config file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(a.stdout, config.ExampleConfigJSON())
				return err
			},
		},
	)
	return cmd
}
