package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/morphgrid/internal/ctxlog"
	"github.com/vk/morphgrid/internal/modelhcl"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle: an isolated logger, the loaded model, and the writer the final
// grid is printed to.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	model  *modelhcl.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and the model
// loaded from the configured path.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	size := modelhcl.SizeOverride{MX: config.Width, MY: config.Height, MZ: config.Depth}
	model, err := modelhcl.LoadFile(ctx, config.ModelPath, size)
	if err != nil {
		// A failure to load the model is a fatal startup error.
		panic(fmt.Errorf("failed to load model: %w", err))
	}
	logger.Debug("Model loaded.",
		"path", config.ModelPath,
		"mx", model.Grid.MX, "my", model.Grid.MY, "mz", model.Grid.MZ,
	)

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
		model:  model,
	}
}

// Model returns the loaded model. This is primarily for testing.
func (a *App) Model() *modelhcl.Model {
	return a.model
}
