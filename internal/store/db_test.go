package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuslog/internal/store"
	"campuslog/internal/store/storetest"
)

func countStudents(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM students`).Scan(&n))
	return n
}

func TestMigrationsCreateSchema(t *testing.T) {
	db := storetest.Open(t)
	for _, table := range []string{"students", "student_pdfs", "log_entries", "reasons", "mentor_queue", "admin_records", "meetings", "users"} {
		var n int
		err := db.Client.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
		require.NoError(t, err, table)
	}
	assert.True(t, db.Healthy(context.Background()))
}

func TestWithTxCommits(t *testing.T) {
	db := storetest.Open(t)
	err := store.WithTx(context.Background(), db.Client, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO students (s_id, name) VALUES ($1, $2)`, "S1", "Asha")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countStudents(t, db.Client))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := storetest.Open(t)
	boom := errors.New("boom")
	err := store.WithTx(context.Background(), db.Client, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO students (s_id, name) VALUES ($1, $2)`, "S1", "Asha"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countStudents(t, db.Client))
}

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	_, err := store.NewDB(context.Background(), "mysql", "x")
	require.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)

	_, err := db.Client.ExecContext(ctx, `INSERT INTO students (s_id, name) VALUES ('S1', 'Asha')`)
	require.NoError(t, err)
	_, err = db.Client.ExecContext(ctx, `INSERT INTO students (s_id, name) VALUES ('S1', 'Asha')`)
	require.Error(t, err)
	assert.True(t, store.IsUniqueViolation(fmt.Errorf("insert: %w", err)))

	assert.False(t, store.IsUniqueViolation(errors.New("boom")))
	assert.False(t, store.IsUniqueViolation(nil))
}

func TestLogEntryUniqueIndexIsPartial(t *testing.T) {
	ctx := context.Background()
	db := storetest.Open(t)
	insert := func(sid any, comment string) error {
		_, err := db.Client.ExecContext(ctx, `
			INSERT INTO log_entries (s_id, faculty_name, time_date, comment, venue)
			VALUES ($1, 'Dr. Rao', CURRENT_TIMESTAMP, $2, 'Lab 2')
		`, sid, comment)
		return err
	}

	require.NoError(t, insert("S1", "late"))
	assert.True(t, store.IsUniqueViolation(insert("S1", "late")))

	require.NoError(t, insert("S1", "malpractice"))
	require.NoError(t, insert("S1", "malpractice"))
	require.NoError(t, insert(nil, "late"))
	require.NoError(t, insert(nil, "late"))
}
