package currencies

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Repository handles currency persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new currency repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "currencies").Logger(),
	}
}

// List retrieves all currencies ordered by code.
func (r *Repository) List() ([]Currency, error) {
	rows, err := r.db.Query("SELECT id, code, name FROM currencies ORDER BY code ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var out []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currencies: %w", err)
	}
	return out, nil
}

// GetByCode retrieves a currency by canonical code, nil when absent.
func (r *Repository) GetByCode(code string) (*Currency, error) {
	var c Currency
	err := r.db.QueryRow("SELECT id, code, name FROM currencies WHERE code = ?", code).
		Scan(&c.ID, &c.Code, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency %s: %w", code, err)
	}
	return &c, nil
}

// GetByID retrieves a currency by primary key, nil when absent.
func (r *Repository) GetByID(id int64) (*Currency, error) {
	var c Currency
	err := r.db.QueryRow("SELECT id, code, name FROM currencies WHERE id = ?", id).
		Scan(&c.ID, &c.Code, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency %d: %w", id, err)
	}
	return &c, nil
}

// Ensure returns the currency with the given code, creating it if missing.
func (r *Repository) Ensure(code, name string) (*Currency, error) {
	existing, err := r.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	result, err := r.db.Exec("INSERT INTO currencies (code, name) VALUES (?, ?)", code, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert currency %s: %w", code, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	r.log.Info().Str("code", code).Msg("Currency created")
	return &Currency{ID: id, Code: code, Name: name}, nil
}
