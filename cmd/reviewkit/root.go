package main

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"reviewkit/internal/config"
	"reviewkit/internal/tools"
)

const version = "0.1.0"

type rootOptions struct {
	root       string
	configPath string
	debug      bool
	logFile    string
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	opts   rootOptions
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "reviewkit",
		Short:         "Parse unified diffs and search a repository for code review",
		Long:          "reviewkit parses git unified diffs into line-addressable JSON and exposes sandboxed read, glob and grep tools over a repository.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.root, "root", "", "Repository root (default from config or current directory)")
	flags.StringVar(&a.opts.configPath, "config", "", "Config file (.json, .yaml or .yml)")
	flags.BoolVarP(&a.opts.debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&a.opts.logFile, "log-file", "", "Log file path (logs disabled by default)")

	cmd.AddCommand(
		newDiffCmd(a),
		newReadCmd(a),
		newGlobCmd(a),
		newGrepCmd(a),
		newToolsCmd(a),
		newCallCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.opts.configPath)
	if err != nil {
		return err
	}
	if a.opts.root != "" {
		cfg.Root = a.opts.root
	}
	logFile := a.opts.logFile
	if logFile == "" {
		logFile = cfg.Logging.File
	}
	logger, closer, err := initLogger(cfg.LogLevel(), a.opts.debug, logFile, a.stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer
	a.logger.Debug().Str("root", cfg.Root).Str("config", a.opts.configPath).Msg("reviewkit starting")
	return nil
}

// registry builds the tool registry and logs configuration warnings.
func (a *app) registry() (*tools.Registry, error) {
	registry, err := tools.NewRegistry(a.cfg.ToolOptions(a.logger))
	if err != nil {
		return nil, err
	}
	for _, w := range a.cfg.Validate(registry) {
		a.logger.Warn().Str("field", w.Field).Msg(w.Message)
	}
	return registry, nil
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
