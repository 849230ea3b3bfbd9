package clients

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)

	return db
}

func TestGetOrCreateByName_CreatesOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	first, err := repo.GetOrCreateByName("Aziz")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Aziz", first.Name)

	// Different case and padding must resolve to the same client.
	second, err := repo.GetOrCreateByName("  aziz ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetOrCreateByName_RejectsEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	_, err := repo.GetOrCreateByName("   ")
	require.Error(t, err)
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	created, err := repo.GetOrCreateByName("Bekzod")
	require.NoError(t, err)

	found, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Bekzod", found.Name)

	missing, err := repo.GetByID(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
