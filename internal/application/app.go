// Package application wires the pipeline and the selected front-ends.
package application

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gamalhq/gamal/internal/domain/service"
	"github.com/gamalhq/gamal/internal/infrastructure/config"
	"github.com/gamalhq/gamal/internal/infrastructure/llm"
	"github.com/gamalhq/gamal/internal/infrastructure/logger"
	"github.com/gamalhq/gamal/internal/infrastructure/prompt"
	"github.com/gamalhq/gamal/internal/infrastructure/search"
	httpserver "github.com/gamalhq/gamal/internal/interfaces/http"
	"github.com/gamalhq/gamal/internal/interfaces/telegram"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

// App is the dependency container: infrastructure clients, the pipeline,
// and whichever server front-ends the configuration selects.
type App struct {
	config *config.Config
	logger *zap.Logger
	quiet  zapcore.Level

	prompts  *prompt.Library
	pipeline *service.Pipeline

	httpServer      *httpserver.Server
	telegramAdapter *telegram.Adapter
}

// NewApp builds the container. quiet is the log threshold for components
// whose debug switch is off; interactive modes pass warn so log lines never
// interleave with streamed answers.
func NewApp(cfg *config.Config, log *zap.Logger, quiet zapcore.Level) (*App, error) {
	app := &App{
		config: cfg,
		logger: log,
		quiet:  quiet,
	}

	app.initInfrastructure()
	if err := app.initInterfaces(); err != nil {
		return nil, err
	}
	return app, nil
}

func (app *App) initInfrastructure() {
	cfg := app.config

	chat := llm.NewClient(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.ChatModel,
		Streaming: cfg.LLM.StreamingEnabled(),
	}, app.Component("chat", cfg.Debug.Chat))

	searcher := search.NewClient(search.Config{
		APIKey: cfg.Search.APIKey,
	}, app.Component("search", cfg.Debug.Search))

	app.prompts = prompt.NewLibrary(cfg.Prompt.File, app.Component("prompt", false))

	app.pipeline = service.NewPipeline(chat, searcher, app.prompts,
		app.Component("pipeline", cfg.Debug.Pipeline))
}

func (app *App) initInterfaces() error {
	cfg := app.config

	if cfg.HTTP.Port != "" {
		port, err := strconv.Atoi(cfg.HTTP.Port)
		if err != nil || port <= 0 || port > 65535 {
			return apperrors.NewConfigError(fmt.Sprintf("GAMAL_HTTP_PORT is not a port: %q", cfg.HTTP.Port))
		}
		app.httpServer = httpserver.NewServer(
			httpserver.Config{Port: port},
			app.pipeline,
			app.Component("http", false),
		)
	}

	if cfg.Telegram.TokenValid() {
		adapter, err := telegram.NewAdapter(
			telegram.Config{Token: cfg.Telegram.Token},
			app.pipeline,
			app.Component("telegram", false),
		)
		if err != nil {
			return fmt.Errorf("failed to create telegram adapter: %w", err)
		}
		app.telegramAdapter = adapter
	}

	return nil
}

// Start launches the prompt-pack watcher and the configured servers.
func (app *App) Start(ctx context.Context) error {
	if err := app.prompts.Watch(ctx); err != nil {
		app.logger.Warn("Prompt pack watching unavailable", zap.Error(err))
	}

	if app.httpServer != nil {
		if err := app.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	if app.telegramAdapter != nil {
		if err := app.telegramAdapter.Start(ctx); err != nil {
			return fmt.Errorf("failed to start telegram adapter: %w", err)
		}
	}

	return nil
}

// Stop shuts the servers down.
func (app *App) Stop(ctx context.Context) error {
	if app.telegramAdapter != nil {
		app.telegramAdapter.Stop()
	}

	if app.httpServer != nil {
		if err := app.httpServer.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
	}

	return nil
}

// Serving reports whether any server front-end is configured.
func (app *App) Serving() bool {
	return app.httpServer != nil || app.telegramAdapter != nil
}

// Pipeline returns the inquiry pipeline, for the terminal and test runner.
func (app *App) Pipeline() *service.Pipeline {
	return app.pipeline
}

// Logger returns the process logger.
func (app *App) Logger() *zap.Logger {
	return app.logger
}

// Component names a child logger clamped to the app's quiet level unless
// the component's debug switch is on.
func (app *App) Component(name string, debug bool) *zap.Logger {
	return logger.ForComponent(app.logger, name, debug, app.quiet)
}
