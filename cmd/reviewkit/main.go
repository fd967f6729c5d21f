package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initLogger builds the process logger. Logs are discarded unless a log file
// is given, or debug mode is on and stderr is a terminal. The returned closer
// is nil unless a file was opened.
func initLogger(level zerolog.Level, debug bool, logFilePath string, stderr io.Writer) (zerolog.Logger, io.Closer, error) {
	if debug {
		level = zerolog.DebugLevel
	}

	var output io.Writer
	var closer io.Closer
	switch {
	case logFilePath != "":
		// Log to file only
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closer = file
	case debug && isTerminal(stderr):
		output = zerolog.ConsoleWriter{Out: stderr, TimeFormat: "15:04:05"}
	default:
		// No logging to console by default - use io.Discard
		output = io.Discard
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
