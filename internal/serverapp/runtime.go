package serverapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// StopReason says why WaitForStop returned.
type StopReason string

const (
	StopSignal       StopReason = "signal"
	StopServerError  StopReason = "server_error"
	StopServerClosed StopReason = "server_closed"
)

var errServerClosed = errors.New("hydration server stopped without an error")

// Start launches the HTTP server goroutine. It requires Init to have completed.
func (a *App) Start() (<-chan error, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.initialized {
		return nil, fmt.Errorf("app is not initialized")
	}
	if a.started {
		return a.serverErrors, nil
	}

	a.serverErrors = startServer(a.cfg, a.logger, a.srv, a.serverAddr)
	a.started = true
	a.startedAt = time.Now()
	return a.serverErrors, nil
}

// WaitForStop blocks until a stop signal arrives or the server goroutine exits.
// A server that exits with a nil error reports StopServerClosed and errServerClosed.
func (a *App) WaitForStop(stop <-chan os.Signal, serverErrors <-chan error) (StopReason, error) {
	if serverErrors == nil {
		a.stateMu.Lock()
		serverErrors = a.serverErrors
		a.stateMu.Unlock()
	}
	if stop == nil && serverErrors == nil {
		return "", fmt.Errorf("nothing to wait on: stop and server error channels are both nil")
	}

	// A nil channel never becomes ready.
	select {
	case err := <-serverErrors:
		if err == nil {
			a.logStop(StopServerClosed)
			return StopServerClosed, errServerClosed
		}
		a.logStop(StopServerError, slog.String("error", err.Error()))
		return StopServerError, fmt.Errorf("hydration server failed: %w", err)
	case sig := <-stop:
		a.logStop(StopSignal, slog.String("signal", sig.String()))
		return StopSignal, nil
	}
}

func (a *App) logStop(reason StopReason, attrs ...any) {
	if a.logger == nil {
		return
	}
	fields := []any{slog.String("reason", string(reason))}
	a.stateMu.Lock()
	if !a.startedAt.IsZero() {
		fields = append(fields, slog.Duration("uptime", time.Since(a.startedAt)))
	}
	if a.sources != nil {
		fields = append(fields, slog.Int("sources", len(a.sources.Names())))
	}
	a.stateMu.Unlock()

	level := slog.LevelInfo
	if reason != StopSignal {
		level = slog.LevelError
	}
	a.logger.Log(context.Background(), level, "hydration server stopping", append(fields, attrs...)...)
}
