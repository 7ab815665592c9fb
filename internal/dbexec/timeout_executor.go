package dbexec

import (
	"context"
	"time"
)

// TimeoutExecutor bounds every query with a deadline. The deadline covers the
// query and the iteration of its rows, and is released when the rows are closed.
type TimeoutExecutor struct {
	next    QueryExecutor
	timeout time.Duration
}

// NewTimeoutExecutor wraps next. A non-positive timeout returns next unchanged.
func NewTimeoutExecutor(next QueryExecutor, timeout time.Duration) QueryExecutor {
	if timeout <= 0 {
		return next
	}
	return &TimeoutExecutor{next: next, timeout: timeout}
}

func (e *TimeoutExecutor) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	rows, err := e.next.QueryContext(ctx, query, args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &deadlineRows{Rows: rows, cancel: cancel}, nil
}

type deadlineRows struct {
	Rows
	cancel context.CancelFunc
}

func (r *deadlineRows) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}
