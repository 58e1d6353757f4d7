package persistence

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*PostgresDB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewPostgresDBWithPool(mock, logger), mock
}

func TestPostgresDB_Pool(t *testing.T) {
	db, mock := newTestDB(t)
	assert.Equal(t, mock, db.Pool(), "Pool() should return the wrapped pool")
}

func TestPostgresDB_ExecuteTx(t *testing.T) {
	t.Run("Commit", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE persons").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := db.ExecuteTx(context.Background(), func(tx pgx.Tx) error {
			_, err := tx.Exec(context.Background(), "UPDATE persons SET ltv_all = 0")
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		fnErr := errors.New("boom")
		err := db.ExecuteTx(context.Background(), func(tx pgx.Tx) error {
			return fnErr
		})

		assert.ErrorIs(t, err, fnErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err := db.ExecuteTx(context.Background(), func(tx pgx.Tx) error {
			t.Fatal("fn must not run")
			return nil
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})

	t.Run("RollbackOnPanic", func(t *testing.T) {
		db, mock := newTestDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = db.ExecuteTx(context.Background(), func(tx pgx.Tx) error {
				panic("unexpected")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
