package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// === New ===

func TestNew(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"json", Config{Level: "debug", Format: "json", OutputPath: "stdout"}},
		{"console", Config{Level: "info", Format: "console", OutputPath: "stderr"}},
		{"bad level falls back", Config{Level: "loud", Format: "json", OutputPath: "stdout"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("build failed: %v", err)
			}
			log.Info("probe")
		})
	}
}

// === ForComponent ===

func TestForComponent_ClampsWithoutDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	clamped := ForComponent(base, "search", false, zapcore.WarnLevel)
	clamped.Debug("hidden")
	clamped.Info("hidden too")
	clamped.Warn("visible")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "visible" || entries[0].LoggerName != "search" {
		t.Errorf("entry: %+v", entries[0].Entry)
	}
}

func TestForComponent_DebugKeepsBaseLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	verbose := ForComponent(base, "chat", true, zapcore.WarnLevel)
	verbose.Debug("kept")

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Fatalf("debug component lost its entry: %+v", entries)
	}
	if entries[0].LoggerName != "chat" {
		t.Errorf("logger name: %q", entries[0].LoggerName)
	}
}
