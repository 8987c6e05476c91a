package safego

import (
	"go.uber.org/zap"
)

// Go runs fn on a new goroutine and turns a panic into an error log instead
// of a process crash. Long-lived background loops (pollers, watchers) are
// launched through this so one bad update cannot take the process down.
func Go(log *zap.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("goroutine panicked",
					zap.String("goroutine", name),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
		}()
		fn()
	}()
}
