package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal kinds for ConfirmDeal. BUY means the office buys foreign currency and
// pays base; SELL means the office sells foreign currency and receives base.
const (
	DealBuy  = "BUY"
	DealSell = "SELL"
)

// Transaction is a two-legged currency exchange. FromAmount leaves the
// office, ToAmount comes in; to_amount * rate relations are enforced at
// creation time.
type Transaction struct {
	ID               int64           `json:"id"`
	FromCurrencyID   int64           `json:"from_currency_id"`
	FromCurrencyCode string          `json:"from_currency_code"`
	ToCurrencyID     int64           `json:"to_currency_id"`
	ToCurrencyCode   string          `json:"to_currency_code"`
	FromAmount       decimal.Decimal `json:"from_amount"`
	ToAmount         decimal.Decimal `json:"to_amount"`
	Rate             decimal.Decimal `json:"rate"`
	ClientID         *int64          `json:"client_id,omitempty"`
	ClientName       *string         `json:"client_name,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NewTransaction is the payload for creating a manual exchange. Currency
// fields accept any spelling the alias table knows.
type NewTransaction struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	Rate         decimal.Decimal `json:"rate"`
	ClientName   string          `json:"client_name,omitempty"`
}

// Deal is the payload for confirming a buy or sell against the base
// currency. A nil Rate falls back to the latest recorded rate for the pair.
type Deal struct {
	Kind         string           `json:"kind"`
	CurrencyCode string           `json:"currency_code"`
	Amount       decimal.Decimal  `json:"amount"`
	Rate         *decimal.Decimal `json:"rate,omitempty"`
	ClientName   string           `json:"client_name,omitempty"`
}
