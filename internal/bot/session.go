package bot

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Schema creates the per-chat conversation state table. State is an
// opaque msgpack blob so the session shape can evolve without
// migrations; undecodable blobs are dropped on read.
const Schema = `
CREATE TABLE IF NOT EXISTS bot_sessions (
	chat_id INTEGER PRIMARY KEY,
	state BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

const timeFormat = "2006-01-02 15:04:05"

// Manual entry flow steps, in order.
const (
	stepAmount    = "amount"
	stepCurrency  = "currency"
	stepDirection = "direction"
	stepClient    = "client"
	stepNote      = "note"
)

// Draft is an entry under construction. Amount is kept as a decimal
// string so the encoded blob stays readable and exact.
type Draft struct {
	Amount        string `msgpack:"amount,omitempty"`
	CurrencyCode  string `msgpack:"currency_code,omitempty"`
	FlowDirection string `msgpack:"flow_direction,omitempty"`
	ClientName    string `msgpack:"client_name,omitempty"`
	Note          string `msgpack:"note,omitempty"`
}

// Session is everything the bot remembers about one chat between
// updates. The zero value means "idle, showing the main menu".
type Session struct {
	Assistant      bool   `msgpack:"assistant,omitempty"`
	Step           string `msgpack:"step,omitempty"`
	AwaitingClient bool   `msgpack:"awaiting_client,omitempty"`
	Draft          *Draft `msgpack:"draft,omitempty"`
	PendingDelete  int64  `msgpack:"pending_delete,omitempty"`
}

// SessionStore persists chat sessions in SQLite.
type SessionStore struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSessionStore(db *sql.DB, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		db:  db,
		log: log.With().Str("component", "bot_sessions").Logger(),
	}
}

// Get loads the session for a chat. Unknown chats and blobs that no
// longer decode both come back as a fresh empty session.
func (s *SessionStore) Get(chatID int64) (*Session, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT state FROM bot_sessions WHERE chat_id = ?`, chatID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := msgpack.Unmarshal(blob, &session); err != nil {
		s.log.Warn().Err(err).Int64("chat_id", chatID).Msg("Dropping undecodable session state")
		return &Session{}, nil
	}
	return &session, nil
}

func (s *SessionStore) Save(chatID int64, session *Session) error {
	blob, err := msgpack.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO bot_sessions (chat_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`, chatID, blob, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(chatID int64) error {
	_, err := s.db.Exec(`DELETE FROM bot_sessions WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
