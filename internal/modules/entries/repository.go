package entries

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kassaflow/kassa/internal/modules/currencies"
)

const timeFormat = "2006-01-02 15:04:05"

const entryColumns = "id, amount, currency_code, flow_direction, client_name, note, created_by_telegram_id, created_at"

// Repository handles cash entry persistence. Timestamps are stored as UTC
// strings; amounts as decimal strings summed in Go, never in SQL.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new cash entry repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "entries").Logger(),
	}
}

// Insert stores an entry. A zero CreatedAt is filled with the current time.
func (r *Repository) Insert(e *Entry) (*Entry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	createdAt := e.CreatedAt.UTC().Format(timeFormat)

	query := `
		INSERT INTO cash_entries (
			amount, currency_code, flow_direction, client_name, note,
			created_by_telegram_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(
		query,
		e.Amount.String(),
		e.CurrencyCode,
		e.FlowDirection,
		e.ClientName,
		e.Note,
		e.CreatedByTelegramID,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	e.ID = id
	e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return e, nil
}

// GetByID retrieves an entry by primary key, nil when absent.
func (r *Repository) GetByID(id int64) (*Entry, error) {
	row := r.db.QueryRow("SELECT "+entryColumns+" FROM cash_entries WHERE id = ?", id)

	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}
	return entry, nil
}

// Delete removes an entry, reporting whether it existed.
func (r *Repository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM cash_entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// List retrieves one page of entries, newest first, plus the total count.
func (r *Repository) List(f Filter) (*Page, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM cash_entries"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	query := "SELECT " + entryColumns + " FROM cash_entries" + where + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	list, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	return &Page{Total: total, Entries: list}, nil
}

// ForRange retrieves all entries in [from, to) in insertion order.
func (r *Repository) ForRange(from, to time.Time) ([]Entry, error) {
	query := "SELECT " + entryColumns + ` FROM cash_entries
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query, from.UTC().Format(timeFormat), to.UTC().Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for range: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// NetByCurrency folds inflow minus outflow per currency over the optional
// range. Every supported currency is present, zero when it had no entries,
// ordered by code ascending.
func (r *Repository) NetByCurrency(from, to *time.Time) ([]CurrencyAmount, error) {
	where, args := buildWhere(Filter{From: from, To: to})

	rows, err := r.db.Query("SELECT currency_code, flow_direction, amount FROM cash_entries"+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry flows: %w", err)
	}
	defer rows.Close()

	net := make(map[string]decimal.Decimal)
	for rows.Next() {
		var code, direction, amountStr string
		if err := rows.Scan(&code, &direction, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan entry flow: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		if direction == DirectionOutflow {
			amount = amount.Neg()
		}
		net[code] = net[code].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry flows: %w", err)
	}

	codes := currencies.Supported()
	sort.Strings(codes)

	out := make([]CurrencyAmount, 0, len(codes))
	for _, code := range codes {
		out = append(out, CurrencyAmount{CurrencyCode: code, Amount: net[code]})
	}
	return out, nil
}

// ClientDebts folds outflow minus inflow per (client, currency) pair,
// ordered by client then currency. Pairs netting to zero stay in the result.
func (r *Repository) ClientDebts() ([]ClientDebt, error) {
	rows, err := r.db.Query("SELECT client_name, currency_code, flow_direction, amount FROM cash_entries")
	if err != nil {
		return nil, fmt.Errorf("failed to query client debts: %w", err)
	}
	defer rows.Close()

	type pair struct {
		client   string
		currency string
	}
	debts := make(map[pair]decimal.Decimal)

	for rows.Next() {
		var client, code, direction, amountStr string
		if err := rows.Scan(&client, &code, &direction, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan client debt row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
		}
		if direction == DirectionInflow {
			amount = amount.Neg()
		}
		key := pair{client: client, currency: code}
		debts[key] = debts[key].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client debts: %w", err)
	}

	out := make([]ClientDebt, 0, len(debts))
	for key, amount := range debts {
		out = append(out, ClientDebt{ClientName: key.client, CurrencyCode: key.currency, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		ci := strings.ToLower(out[i].ClientName)
		cj := strings.ToLower(out[j].ClientName)
		if ci != cj {
			return ci < cj
		}
		return out[i].CurrencyCode < out[j].CurrencyCode
	})
	return out, nil
}

func buildWhere(f Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC().Format(timeFormat))
	}
	if f.To != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, f.To.UTC().Format(timeFormat))
	}
	if f.ClientName != "" {
		conds = append(conds, "LOWER(client_name) = LOWER(?)")
		args = append(args, strings.TrimSpace(f.ClientName))
	}
	if f.CurrencyCode != "" {
		conds = append(conds, "currency_code = ?")
		args = append(args, f.CurrencyCode)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var list []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		list = append(list, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return list, nil
}

func scanEntry(scan func(dest ...interface{}) error) (*Entry, error) {
	var e Entry
	var amountStr, createdAt string

	err := scan(
		&e.ID,
		&amountStr,
		&e.CurrencyCode,
		&e.FlowDirection,
		&e.ClientName,
		&e.Note,
		&e.CreatedByTelegramID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amountStr, err)
	}
	e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &e, nil
}
