package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/morphgrid/internal/app"
	"github.com/vk/morphgrid/internal/cli"
)

// main is the entrypoint for the morphgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	config, shouldExit, parseErr := cli.Parse(args, outW)
	if parseErr != nil {
		return parseErr
	}
	if shouldExit {
		return nil
	}

	// The app panics on fatal startup errors, so recover here and surface the
	// cause as a regular error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	morphgridApp := app.NewApp(outW, config)
	return morphgridApp.Run(context.Background())
}
