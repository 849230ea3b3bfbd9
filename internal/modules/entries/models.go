package entries

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flow directions for a cash entry.
const (
	DirectionInflow  = "INFLOW"
	DirectionOutflow = "OUTFLOW"
)

// Entry is a single directional cash movement recorded by an operator.
type Entry struct {
	ID                  int64           `json:"id"`
	Amount              decimal.Decimal `json:"amount"`
	CurrencyCode        string          `json:"currency_code"`
	FlowDirection       string          `json:"flow_direction"`
	ClientName          string          `json:"client_name"`
	Note                *string         `json:"note,omitempty"`
	CreatedByTelegramID int64           `json:"created_by_telegram_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// NewEntry is the payload for creating an entry. CurrencyCode accepts any
// spelling the alias table knows.
type NewEntry struct {
	Amount              decimal.Decimal `json:"amount"`
	CurrencyCode        string          `json:"currency_code"`
	FlowDirection       string          `json:"flow_direction"`
	ClientName          string          `json:"client_name"`
	Note                *string         `json:"note,omitempty"`
	CreatedByTelegramID int64           `json:"-"`
}

// Filter narrows List queries. Nil and empty values mean no constraint.
type Filter struct {
	From         *time.Time
	To           *time.Time
	ClientName   string
	CurrencyCode string
	Offset       int
	Limit        int
}

// Page is one page of entries plus the unpaginated total.
type Page struct {
	Total   int     `json:"total"`
	Entries []Entry `json:"entries"`
}

// CurrencyAmount pairs a currency with a signed decimal amount.
type CurrencyAmount struct {
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
}

// ClientDebt is the outstanding position of one client in one currency.
// Positive means the client owes the office (outflow exceeded inflow).
type ClientDebt struct {
	ClientName   string          `json:"client_name"`
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
}

// CashTotal is the all-time balance per currency with the base currency
// figure called out for the summary line.
type CashTotal struct {
	Balances         []CurrencyAmount `json:"balances"`
	BaseCurrencyCode string           `json:"base_currency_code"`
	BaseTotal        decimal.Decimal  `json:"base_total"`
}
