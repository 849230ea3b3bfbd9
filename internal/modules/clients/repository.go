package clients

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles client persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new client repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "clients").Logger(),
	}
}

// GetOrCreateByName finds a client by name, ignoring case and surrounding
// whitespace, and creates one when no match exists.
func (r *Repository) GetOrCreateByName(name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("client name is empty")
	}

	existing, err := r.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	createdAt := time.Now().Format("2006-01-02 15:04:05")
	result, err := r.db.Exec("INSERT INTO clients (name, created_at) VALUES (?, ?)", name, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert client: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	r.log.Info().Str("name", name).Msg("Client created")

	client := &Client{ID: id, Name: name}
	client.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return client, nil
}

// GetByName retrieves a client by case-insensitive name, nil when absent.
func (r *Repository) GetByName(name string) (*Client, error) {
	query := `
		SELECT id, name, phone, created_at
		FROM clients
		WHERE LOWER(name) = LOWER(?)
		ORDER BY id ASC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query, strings.TrimSpace(name)))
}

// GetByID retrieves a client by primary key, nil when absent.
func (r *Repository) GetByID(id int64) (*Client, error) {
	query := "SELECT id, name, phone, created_at FROM clients WHERE id = ?"
	return r.scanOne(r.db.QueryRow(query, id))
}

// List retrieves all clients ordered by name.
func (r *Repository) List() ([]Client, error) {
	rows, err := r.db.Query("SELECT id, name, phone, created_at FROM clients ORDER BY name COLLATE NOCASE ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		var c Client
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}
	return out, nil
}

func (r *Repository) scanOne(row *sql.Row) (*Client, error) {
	var c Client
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	c.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return &c, nil
}
