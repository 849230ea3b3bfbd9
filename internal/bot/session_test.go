package bot

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, zerolog.Nop())

	saved := &Session{
		Assistant:      true,
		Step:           stepNote,
		AwaitingClient: true,
		Draft: &Draft{
			Amount:        "150.50",
			CurrencyCode:  "USD",
			FlowDirection: "INFLOW",
			ClientName:    "Aziz",
			Note:          "rate: 12650",
		},
		PendingDelete: 7,
	}
	require.NoError(t, store.Save(42, saved))

	loaded, err := store.Get(42)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSessionStore_UnknownChatIsEmpty(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, zerolog.Nop())

	session, err := store.Get(999)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, &Session{}, session)
}

func TestSessionStore_SaveOverwrites(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, zerolog.Nop())

	require.NoError(t, store.Save(42, &Session{Step: stepAmount, Draft: &Draft{}}))
	require.NoError(t, store.Save(42, &Session{Assistant: true}))

	loaded, err := store.Get(42)
	require.NoError(t, err)
	assert.True(t, loaded.Assistant)
	assert.Empty(t, loaded.Step)
	assert.Nil(t, loaded.Draft)
}

func TestSessionStore_Clear(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, zerolog.Nop())

	require.NoError(t, store.Save(42, &Session{Assistant: true}))
	require.NoError(t, store.Clear(42))

	loaded, err := store.Get(42)
	require.NoError(t, err)
	assert.Equal(t, &Session{}, loaded)
}

func TestSessionStore_CorruptStateDropped(t *testing.T) {
	db := setupTestDB(t)
	store := NewSessionStore(db, zerolog.Nop())

	_, err := db.Exec(`INSERT INTO bot_sessions (chat_id, state, updated_at) VALUES (42, ?, '2024-03-10 00:00:00')`,
		[]byte("not msgpack"))
	require.NoError(t, err)

	loaded, err := store.Get(42)
	require.NoError(t, err)
	assert.Equal(t, &Session{}, loaded)
}
