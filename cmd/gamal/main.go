package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gamalhq/gamal/internal/application"
	"github.com/gamalhq/gamal/internal/infrastructure/config"
	"github.com/gamalhq/gamal/internal/infrastructure/logger"
	"github.com/gamalhq/gamal/internal/interfaces/terminal"
	"github.com/gamalhq/gamal/internal/interfaces/testrunner"
)

const (
	appName    = "gamal"
	appVersion = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName + " [check-file...]",
		Short: "gamal — question answering grounded in web search",
		Long: "gamal answers inquiries with citations backed by live web search.\n" +
			"Without arguments it starts an interactive terminal. Pass check files\n" +
			"to replay them in batch. Set GAMAL_HTTP_PORT or GAMAL_TELEGRAM_TOKEN\n" +
			"to serve over HTTP or Telegram instead.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", appName, appVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(-1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// A .env file fills in missing variables; the real environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(args) > 0 {
		return runChecks(cfg, args)
	}
	if cfg.Interactive() {
		return runTerminal(cfg)
	}
	return runServers(cfg)
}

// newLogger builds the base logger at debug level; components without their
// debug switch on are clamped later through App.Component.
func newLogger(interactive bool) (*zap.Logger, error) {
	if interactive {
		// Log lines go to stderr so streamed answers on stdout stay clean.
		return logger.New(logger.Config{
			Level:      "debug",
			Format:     "console",
			OutputPath: "stderr",
		})
	}
	return logger.New(logger.Config{
		Level:      "debug",
		Format:     "json",
		OutputPath: "stdout",
	})
}

// runChecks replays check files through the pipeline and reports mismatches.
func runChecks(cfg *config.Config, paths []string) error {
	log, err := newLogger(true)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.NewApp(cfg, log, zapcore.WarnLevel)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	runner := testrunner.New(app.Pipeline(), app.Component("checks", false), cfg.Debug.FailExit)
	failures, err := runner.Run(ctx, paths)
	if err != nil {
		return err
	}
	if failures > 0 {
		os.Exit(-1)
	}
	return nil
}

// runTerminal starts the interactive terminal on stdin/stdout.
func runTerminal(cfg *config.Config) error {
	log, err := newLogger(true)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.NewApp(cfg, log, zapcore.WarnLevel)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	term := terminal.New(app.Pipeline(), app.Component("terminal", false), terminal.Config{
		Model: cfg.LLM.ChatModel,
	})
	if err := term.Run(ctx); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return app.Stop(shutdownCtx)
}

// runServers starts the configured HTTP and Telegram front-ends and blocks
// until a shutdown signal arrives.
func runServers(cfg *config.Config) error {
	log, err := newLogger(false)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	log.Info("Starting gamal",
		zap.String("version", appVersion),
		zap.String("model", cfg.LLM.ChatModel),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.NewApp(cfg, log, zapcore.InfoLevel)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
	return nil
}
