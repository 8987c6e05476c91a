package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/service"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

const validPack = `reason: custom reason prompt
respond: |
  Answer in {LANGUAGE} from:
  {REFERENCES}
`

func writePack(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "prompts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pack: %v", err)
	}
	return path
}

// === Built-ins ===

func TestNewLibrary_BuiltinsWithoutPath(t *testing.T) {
	lib := NewLibrary("", testLogger())
	if lib.ReasonSystem() != service.DefaultReasonSystem() {
		t.Error("reason template is not the built-in")
	}
	if lib.RespondSystem() != service.DefaultRespondSystem() {
		t.Error("respond template is not the built-in")
	}
}

func TestNewLibrary_MissingFileKeepsBuiltins(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	if lib.ReasonSystem() != service.DefaultReasonSystem() {
		t.Error("missing pack must leave the built-ins in place")
	}
}

// === Pack loading ===

func TestNewLibrary_LoadsPack(t *testing.T) {
	path := writePack(t, t.TempDir(), validPack)
	lib := NewLibrary(path, testLogger())

	if lib.ReasonSystem() != "custom reason prompt" {
		t.Errorf("reason: %q", lib.ReasonSystem())
	}
	if lib.RespondSystem() != "Answer in {LANGUAGE} from:\n{REFERENCES}\n" {
		t.Errorf("respond: %q", lib.RespondSystem())
	}
}

func TestNewLibrary_PartialPack(t *testing.T) {
	path := writePack(t, t.TempDir(), "reason: only the reason\n")
	lib := NewLibrary(path, testLogger())

	if lib.ReasonSystem() != "only the reason" {
		t.Errorf("reason: %q", lib.ReasonSystem())
	}
	if lib.RespondSystem() != service.DefaultRespondSystem() {
		t.Error("absent respond must keep the built-in")
	}
}

// === Reload validation ===

func TestReload_RejectsRespondWithoutPlaceholders(t *testing.T) {
	dir := t.TempDir()
	path := writePack(t, dir, validPack)
	lib := NewLibrary(path, testLogger())

	writePack(t, dir, "respond: no placeholders here\n")
	err := lib.Reload()
	if !apperrors.IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	// The broken pack must not partially apply.
	if lib.RespondSystem() != "Answer in {LANGUAGE} from:\n{REFERENCES}\n" {
		t.Errorf("respond changed after a rejected pack: %q", lib.RespondSystem())
	}
	if lib.ReasonSystem() != "custom reason prompt" {
		t.Errorf("reason changed after a rejected pack: %q", lib.ReasonSystem())
	}
}

func TestReload_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writePack(t, dir, validPack)
	lib := NewLibrary(path, testLogger())

	writePack(t, dir, "reason: [unclosed\n")
	if err := lib.Reload(); err == nil {
		t.Fatal("expected a parse error")
	}
	if lib.ReasonSystem() != "custom reason prompt" {
		t.Error("templates changed after a failed reload")
	}
}

// === Watching ===

func TestWatch_NoPath(t *testing.T) {
	lib := NewLibrary("", testLogger())
	if err := lib.Watch(context.Background()); err != nil {
		t.Fatalf("watch without a path must be a no-op, got %v", err)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writePack(t, dir, validPack)
	lib := NewLibrary(path, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := lib.Watch(ctx); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	writePack(t, dir, "reason: updated reason\n")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if lib.ReasonSystem() == "updated reason" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("reload never happened, reason still %q", lib.ReasonSystem())
}
