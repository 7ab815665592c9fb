package dbexec

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardExecutor_QueryContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT `id` FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	rows, err := NewStandardExecutor(db).QueryContext(context.Background(), "SELECT `id` FROM `users`")
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, cols)

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{1, 2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStandardExecutor_NilDB(t *testing.T) {
	_, err := NewStandardExecutor(nil).QueryContext(context.Background(), "SELECT 1")
	assert.Error(t, err)
}

type ctxCapturingExecutor struct {
	ctx  context.Context
	rows Rows
	err  error
}

func (e *ctxCapturingExecutor) QueryContext(ctx context.Context, _ string, _ ...any) (Rows, error) {
	e.ctx = ctx
	return e.rows, e.err
}

type stubRows struct {
	closed bool
}

func (r *stubRows) Next() bool                 { return false }
func (r *stubRows) Columns() ([]string, error) { return nil, nil }
func (r *stubRows) Scan(...any) error          { return nil }
func (r *stubRows) Err() error                 { return nil }
func (r *stubRows) Close() error {
	r.closed = true
	return nil
}

func TestTimeoutExecutor(t *testing.T) {
	t.Run("applies a deadline released on close", func(t *testing.T) {
		inner := &ctxCapturingExecutor{rows: &stubRows{}}
		exec := NewTimeoutExecutor(inner, time.Minute)

		rows, err := exec.QueryContext(context.Background(), "SELECT 1")
		require.NoError(t, err)

		deadline, ok := inner.ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		assert.NoError(t, inner.ctx.Err())

		require.NoError(t, rows.Close())
		assert.True(t, inner.rows.(*stubRows).closed)
		assert.ErrorIs(t, inner.ctx.Err(), context.Canceled)
	})

	t.Run("releases the deadline on query error", func(t *testing.T) {
		boom := errors.New("boom")
		inner := &ctxCapturingExecutor{err: boom}

		_, err := NewTimeoutExecutor(inner, time.Minute).QueryContext(context.Background(), "SELECT 1")
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, inner.ctx.Err(), context.Canceled)
	})

	t.Run("zero timeout returns the wrapped executor", func(t *testing.T) {
		inner := &ctxCapturingExecutor{}
		assert.Same(t, inner, NewTimeoutExecutor(inner, 0))
	})
}
