package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const timeFormat = "2006-01-02 15:04:05"

const transactionColumns = `
	t.id, t.from_currency_id, fc.code, t.to_currency_id, tc.code,
	t.from_amount, t.to_amount, t.rate, t.client_id, cl.name, t.created_at
`

const transactionJoins = `
	FROM transactions t
	JOIN currencies fc ON fc.id = t.from_currency_id
	JOIN currencies tc ON tc.id = t.to_currency_id
	LEFT JOIN clients cl ON cl.id = t.client_id
`

// Repository handles exchange transaction persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Insert stores a transaction. A zero CreatedAt is filled with the current
// time.
func (r *Repository) Insert(tx *Transaction) (*Transaction, error) {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	createdAt := tx.CreatedAt.UTC().Format(timeFormat)

	query := `
		INSERT INTO transactions (
			from_currency_id, to_currency_id, from_amount, to_amount, rate,
			client_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(
		query,
		tx.FromCurrencyID,
		tx.ToCurrencyID,
		tx.FromAmount.String(),
		tx.ToAmount.String(),
		tx.Rate.String(),
		tx.ClientID,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	tx.ID = id
	tx.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return tx, nil
}

// ListOrdered retrieves the full history in chronological order, insertion
// order breaking ties, with currency codes joined in. A non-nil until bounds
// the result to transactions strictly before it. This feeds the profit
// engine, which depends on this exact ordering.
func (r *Repository) ListOrdered(until *time.Time) ([]Transaction, error) {
	query := "SELECT " + transactionColumns + transactionJoins
	var args []interface{}
	if until != nil {
		query += " WHERE t.created_at < ?"
		args = append(args, until.UTC().Format(timeFormat))
	}
	query += " ORDER BY t.created_at ASC, t.id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListRecent retrieves the newest transactions first.
func (r *Repository) ListRecent(limit int) ([]Transaction, error) {
	query := "SELECT " + transactionColumns + transactionJoins +
		" ORDER BY t.created_at DESC, t.id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// LatestRate returns the rate of the most recent transaction in exactly
// this direction, nil when the pair has never been traded.
func (r *Repository) LatestRate(fromCurrencyID, toCurrencyID int64) (*decimal.Decimal, error) {
	query := `
		SELECT rate FROM transactions
		WHERE from_currency_id = ? AND to_currency_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var rateStr string
	err := r.db.QueryRow(query, fromCurrencyID, toCurrencyID).Scan(&rateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest rate: %w", err)
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate %q: %w", rateStr, err)
	}
	return &rate, nil
}

// CountAndTurnover returns the number of transactions in [from, to) and the
// sum of their base-currency legs. Cross-pair transactions count but add
// nothing to turnover.
func (r *Repository) CountAndTurnover(from, to time.Time, baseCurrency string) (int, decimal.Decimal, error) {
	query := `
		SELECT fc.code, tc.code, t.from_amount, t.to_amount
		FROM transactions t
		JOIN currencies fc ON fc.id = t.from_currency_id
		JOIN currencies tc ON tc.id = t.to_currency_id
		WHERE t.created_at >= ? AND t.created_at < ?
	`

	rows, err := r.db.Query(query, from.UTC().Format(timeFormat), to.UTC().Format(timeFormat))
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to query turnover: %w", err)
	}
	defer rows.Close()

	count := 0
	turnover := decimal.Zero
	for rows.Next() {
		var fromCode, toCode, fromAmountStr, toAmountStr string
		if err := rows.Scan(&fromCode, &toCode, &fromAmountStr, &toAmountStr); err != nil {
			return 0, decimal.Zero, fmt.Errorf("failed to scan turnover row: %w", err)
		}
		count++

		var legStr string
		switch baseCurrency {
		case fromCode:
			legStr = fromAmountStr
		case toCode:
			legStr = toAmountStr
		default:
			continue
		}
		leg, err := decimal.NewFromString(legStr)
		if err != nil {
			return 0, decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", legStr, err)
		}
		turnover = turnover.Add(leg)
	}
	if err := rows.Err(); err != nil {
		return 0, decimal.Zero, fmt.Errorf("error iterating turnover rows: %w", err)
	}

	return count, turnover, nil
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var list []Transaction
	for rows.Next() {
		var tx Transaction
		var fromAmountStr, toAmountStr, rateStr, createdAt string

		err := rows.Scan(
			&tx.ID,
			&tx.FromCurrencyID,
			&tx.FromCurrencyCode,
			&tx.ToCurrencyID,
			&tx.ToCurrencyCode,
			&fromAmountStr,
			&toAmountStr,
			&rateStr,
			&tx.ClientID,
			&tx.ClientName,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if tx.FromAmount, err = decimal.NewFromString(fromAmountStr); err != nil {
			return nil, fmt.Errorf("failed to parse from_amount %q: %w", fromAmountStr, err)
		}
		if tx.ToAmount, err = decimal.NewFromString(toAmountStr); err != nil {
			return nil, fmt.Errorf("failed to parse to_amount %q: %w", toAmountStr, err)
		}
		if tx.Rate, err = decimal.NewFromString(rateStr); err != nil {
			return nil, fmt.Errorf("failed to parse rate %q: %w", rateStr, err)
		}
		tx.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		list = append(list, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return list, nil
}
