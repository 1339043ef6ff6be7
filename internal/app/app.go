package app

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vk/spiralflow/internal/flow"
	"github.com/vk/spiralflow/internal/layout"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader *flow.Loader
	loc    layout.Locator
}

// NewApp is the constructor for the main application. Every run gets its own
// isolated logger tagged with a fresh run identifier.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW).
		With("run_id", uuid.NewString())
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
		loader: flow.NewLoader(),
		loc:    layout.SolverLayout{},
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
