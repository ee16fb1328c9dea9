package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/migrations"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS, nil))
	return db
}

func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "clients", "client_cases", "migrations"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, db.RunMigrations(ctx, migrations.FS, nil))

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count))
		assert.Equal(t, 1, count)
	})
}

func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	insertUser := "INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)"

	t.Run("rollback on error", func(t *testing.T) {
		errBoom := errors.New("boom")
		err := db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.ExecReturningID(ctx, insertUser, "ghost", "ghost@example.com", "x", "case_worker"); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count))
		assert.Zero(t, count)
	})

	t.Run("commit on success", func(t *testing.T) {
		var id int64
		err := db.WithTx(ctx, func(tx *Tx) error {
			var err error
			id, err = tx.ExecReturningID(ctx, insertUser, "worker", "worker@example.com", "x", "case_worker")
			return err
		})
		require.NoError(t, err)
		assert.Positive(t, id)
	})

	t.Run("duplicate case is a unique violation", func(t *testing.T) {
		userID, err := db.ExecReturningID(ctx, insertUser, "second", "second@example.com", "x", "case_worker")
		require.NoError(t, err)
		clientID, err := db.ExecReturningID(ctx, `INSERT INTO clients (age, gender, work_experience, canada_workex, dep_num,
			canada_born, citizen_status, level_of_schooling, fluent_english, reading_english_scale, speaking_english_scale,
			writing_english_scale, numeracy_scale, computer_scale, transportation_bool, caregiver_bool, housing,
			income_source, felony_bool, attending_school, currently_employed, substance_use, time_unemployed,
			need_mental_health_support_bool) VALUES (30, 1, 2, 1, 0, 1, 1, 5, 1, 5, 5, 5, 5, 5, 1, 0, 1, 1, 0, 0, 0, 0, 3, 0)`)
		require.NoError(t, err)

		insertCase := "INSERT INTO client_cases (client_id, user_id) VALUES (?, ?)"
		_, err = db.ExecContext(ctx, insertCase, clientID, userID)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, insertCase, clientID, userID)
		require.Error(t, err)
		assert.True(t, db.GetDialect().IsUniqueViolation(err))

		t.Run("deleting the client cascades", func(t *testing.T) {
			_, err := db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", clientID)
			require.NoError(t, err)

			var count int
			require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM client_cases WHERE client_id = ?", clientID).Scan(&count))
			assert.Zero(t, count)
		})
	})
}

func TestExecReturningIDPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := New(sqlDB, NewPostgresDialect())

	mock.ExpectQuery(`INSERT INTO users \(username\) VALUES \(\$1\) RETURNING id`).
		WithArgs("worker").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := db.ExecReturningID(context.Background(), "INSERT INTO users (username) VALUES (?);", "worker")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := New(sqlDB, NewSQLiteDialect())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM client_cases").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err = db.WithTx(context.Background(), func(tx *Tx) error {
		_, err := tx.ExecContext(context.Background(), "DELETE FROM client_cases WHERE client_id = ?", 1)
		return err
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
