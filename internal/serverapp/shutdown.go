package serverapp

import (
	"context"
	"log/slog"
	"time"

	"document-hydrator/internal/logging"
)

// cleanupStack releases resources in reverse order of acquisition.
type cleanupStack struct {
	items []cleanupItem
}

type cleanupItem struct {
	name string
	fn   func(context.Context) error
}

func (s *cleanupStack) push(name string, fn func(context.Context) error) {
	s.items = append(s.items, cleanupItem{name: name, fn: fn})
}

// run calls every cleanup function, newest first. Failures are logged and do
// not stop the remaining steps.
func (s *cleanupStack) run(ctx context.Context, logger *logging.Logger) int {
	failures := 0
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		start := time.Now()
		err := item.fn(ctx)
		if err != nil {
			failures++
		}
		if logger == nil {
			continue
		}
		if err != nil {
			logger.Warn("cleanup error",
				slog.String("component", item.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Info("shut down "+item.name, slog.Duration("took", time.Since(start)))
	}
	return failures
}

// Shutdown gracefully releases all acquired resources. It is safe to call multiple times.
func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a.shutdownOnce.Do(func() {
		a.stateMu.Lock()
		cleanup := a.cleanup
		a.started = false
		a.stateMu.Unlock()

		if failures := cleanup.run(ctx, a.logger); failures > 0 && a.logger != nil {
			a.logger.Warn("shutdown completed with errors", slog.Int("failures", failures))
		}
	})

	return nil
}
