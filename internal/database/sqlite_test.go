package database_test

import (
	"path/filepath"
	"testing"

	"lifeline/backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	// ARRANGE
	path := filepath.Join(t.TempDir(), "nested", "lifeline.db")

	// ACT
	db, err := database.InitDB(path)
	require.NoError(t, err)
	defer db.Close()

	// ASSERT
	for _, table := range []string{"conversations", "messages", "settings"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifeline.db")

	db, err := database.InitDB(path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO settings (key, value) VALUES ('model', 'm')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.InitDB(path)
	require.NoError(t, err)
	defer db.Close()

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM settings WHERE key = 'model'").Scan(&value))
	assert.Equal(t, "m", value)
}

func TestInitDB_RejectsForeignKeyViolations(t *testing.T) {
	db, err := database.InitDB(filepath.Join(t.TempDir(), "lifeline.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO messages (id, conversation_id, role, content, timestamp) VALUES ('m1', 'missing', 'user', 'hi', 1)")

	assert.Error(t, err)
}
