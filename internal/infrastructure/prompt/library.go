// Package prompt manages the system-prompt templates, optionally overridden
// by a YAML pack file that is hot-reloaded on change.
package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gamalhq/gamal/internal/domain/service"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
	"github.com/gamalhq/gamal/pkg/safego"
)

// pack is the on-disk template file. Empty fields keep the current template.
type pack struct {
	Reason  string `yaml:"reason"`
	Respond string `yaml:"respond"`
}

// Library hands out the active templates. Overrides come from a pack file;
// a missing or invalid pack leaves the built-ins in place.
type Library struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	reason  string
	respond string
}

var _ service.PromptSource = (*Library)(nil)

// NewLibrary builds a library serving the built-in templates. When path is
// non-empty the pack file is loaded immediately; a broken pack is logged and
// ignored.
func NewLibrary(path string, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Library{
		path:    path,
		log:     log,
		reason:  service.DefaultReasonSystem(),
		respond: service.DefaultRespondSystem(),
	}
	if path != "" {
		if err := l.Reload(); err != nil {
			log.Warn("prompt pack not loaded, using built-ins",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
	return l
}

// ReasonSystem returns the active Reason stage system prompt.
func (l *Library) ReasonSystem() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reason
}

// RespondSystem returns the active Respond stage template.
func (l *Library) RespondSystem() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.respond
}

// Reload re-reads the pack file. A respond template that drops one of the
// placeholders rejects the whole pack and keeps the previous templates.
func (l *Library) Reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("failed to read prompt pack: %w", err)
	}

	var p pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("prompt pack %s: %v", l.path, err))
	}
	if p.Respond != "" {
		for _, ph := range []string{service.LanguagePlaceholder, service.ReferencesPlaceholder} {
			if !strings.Contains(p.Respond, ph) {
				return apperrors.NewConfigError(fmt.Sprintf("prompt pack %s: respond template lacks %s", l.path, ph))
			}
		}
	}

	l.mu.Lock()
	if p.Reason != "" {
		l.reason = p.Reason
	}
	if p.Respond != "" {
		l.respond = p.Respond
	}
	l.mu.Unlock()

	l.log.Info("prompt pack loaded", zap.String("path", l.path))
	return nil
}

// Watch reloads the pack whenever the file changes, until ctx is done.
func (l *Library) Watch(ctx context.Context) error {
	if l.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory rather than the file: editors replace files on
	// save, which silently drops a per-file watch.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", l.path, err)
	}

	safego.Go(l.log, "prompt-watch", func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				l.handleWatchEvent(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log.Error("prompt watcher error", zap.Error(err))
			}
		}
	})

	l.log.Info("prompt pack watching started", zap.String("path", l.path))
	return nil
}

func (l *Library) handleWatchEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(l.path) {
		return
	}
	if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
		return
	}
	if err := l.Reload(); err != nil {
		l.log.Warn("prompt pack reload failed, keeping previous templates",
			zap.String("path", l.path),
			zap.Error(err),
		)
	}
}
