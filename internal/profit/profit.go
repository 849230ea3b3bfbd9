// Package profit computes realized profit for currency exchange operations
// using a weighted-average-cost inventory model. Every buy of a foreign
// currency blends into a single average unit cost; every sell realizes the
// difference between proceeds and the average cost of the units sold.
//
// The package is pure computation: no storage, no clocks, no logging. Callers
// supply the transaction history in chronological order and receive a report.
package profit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single currency exchange as seen by the engine. Exactly
// one side being the base currency makes it a buy or a sell; anything else
// leaves inventory untouched. FromAmount and ToAmount must be strictly
// positive.
type Transaction struct {
	ID           int64
	FromCurrency string
	ToCurrency   string
	FromAmount   decimal.Decimal
	ToAmount     decimal.Decimal
	Rate         decimal.Decimal
	Timestamp    time.Time
}

// InventoryState is the running position for one foreign currency. Quantity
// may go negative when more is sold than held; it is never clamped.
// While Quantity is positive, CostBasisInBase divided by Quantity is the
// weighted-average unit cost in base currency.
type InventoryState struct {
	Quantity        decimal.Decimal
	CostBasisInBase decimal.Decimal
}

// RealizedProfitEntry is the realized profit attributed to one foreign
// currency within the report window.
type RealizedProfitEntry struct {
	CurrencyCode string          `json:"currency_code"`
	ProfitInBase decimal.Decimal `json:"profit_in_base"`
}

// Report is the outcome of one profit computation. TotalProfitInBase is the
// exact decimal sum of the breakdown entries, which are sorted by currency
// code ascending.
type Report struct {
	BaseCurrencyCode  string                `json:"base_currency_code"`
	TotalProfitInBase decimal.Decimal       `json:"total_profit_in_base"`
	Breakdown         []RealizedProfitEntry `json:"breakdown"`
}
