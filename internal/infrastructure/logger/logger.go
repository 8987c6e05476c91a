package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how the process logger is built.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// New builds the process logger. The base is normally built at debug level
// and individual components are clamped with ForComponent; zap can only
// raise a child's threshold, never lower it below the core's.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{cfg.OutputPath},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// ForComponent names a child logger for one component. Without its debug
// flag the child is clamped to quiet (warn for interactive modes so log
// lines never interleave with streamed answers, info for server modes);
// with the flag set it keeps the base debug level.
func ForComponent(base *zap.Logger, name string, debug bool, quiet zapcore.Level) *zap.Logger {
	child := base.Named(name)
	if !debug {
		child = child.WithOptions(zap.IncreaseLevel(quiet))
	}
	return child
}
