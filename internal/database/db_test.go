package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return New(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "theatre", Password: "pw", DBName: "theatre", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=theatre password=pw dbname=theatre sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.DSN())
}

func TestWithTxCommits(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`UPDATE orders SET status = 'paid'`)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := db.WithTx(context.Background(), func(*sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = db.WithTx(context.Background(), func(*sqlx.Tx) error { panic("boom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck(t *testing.T) {
	t.Run("all tables present", func(t *testing.T) {
		db, mock := newMockDB(t)
		rows := sqlmock.NewRows([]string{"table_name"})
		for _, table := range RequiredTables {
			rows.AddRow(table)
		}
		mock.ExpectQuery("information_schema.tables").WillReturnRows(rows)

		check := db.HealthCheck(context.Background())
		assert.Equal(t, "healthy", check.Status)
		assert.Empty(t, check.MissingTables)
	})

	t.Run("schema not migrated", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("information_schema.tables").
			WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("actors").AddRow("orders"))

		check := db.HealthCheck(context.Background())
		assert.Equal(t, "unhealthy", check.Status)
		assert.Equal(t, []string{"venues", "shows", "sessions", "tickets", "promos"}, check.MissingTables)
	})

	t.Run("store down", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("information_schema.tables").WillReturnError(errors.New("connection refused"))

		check := db.HealthCheck(context.Background())
		assert.Equal(t, "unhealthy", check.Status)
		assert.Contains(t, check.Error, "connection refused")
	})
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		version := strings.SplitN(name, "_", 2)[0]
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[version] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[version] = true
		}
	}
	assert.Equal(t, ups, downs)
	assert.Contains(t, ups, "000002")
}

func TestTicketStatusFollowsOrderStatus(t *testing.T) {
	up, err := migrationFiles.ReadFile("migrations/000002_ticket_status_sync.up.sql")
	require.NoError(t, err)

	sql := string(up)
	assert.Contains(t, sql, "AFTER UPDATE OF status ON orders")
	assert.Contains(t, sql, "UPDATE tickets SET status = NEW.status WHERE order_id = NEW.id")
}
