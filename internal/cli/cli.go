package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/morphgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("morphgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
MorphGrid - a rewrite-rule interpreter for procedural grid generation.

Usage:
  morphgrid [options] MODEL_PATH

Arguments:
  MODEL_PATH
    Path to a single .hcl model file.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model file.")
	mFlag := flagSet.String("m", "", "Path to the model file (shorthand).")
	seedFlag := flagSet.Int("seed", -1, "Seed for the random stream. Negative values pick one from the clock.")
	stepsFlag := flagSet.Int("steps", 0, "Maximum number of turns. 0 runs until no rule applies.")
	widthFlag := flagSet.Int("width", 0, "Override the model's grid width. 0 keeps the declared value.")
	heightFlag := flagSet.Int("height", 0, "Override the model's grid height. 0 keeps the declared value.")
	depthFlag := flagSet.Int("depth", 0, "Override the model's grid depth. 0 keeps the declared value.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *modelFlag != "" {
		path = *modelFlag
	} else if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Model path determined.", "path", path)

	if path == "" {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ModelPath: path,
		Seed:      *seedFlag,
		Steps:     *stepsFlag,
		Width:     *widthFlag,
		Height:    *heightFlag,
		Depth:     *depthFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
