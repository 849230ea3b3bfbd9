package reports

import (
	"github.com/shopspring/decimal"

	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/profit"
)

// PeriodReport aggregates one reporting period. The statistics fields are
// filled for monthly reports only; money stays decimal, only the statistics
// are floating point.
type PeriodReport struct {
	Period            string                       `json:"period"`
	FromDate          string                       `json:"from_date"`
	ToDate            string                       `json:"to_date"`
	TransactionCount  int                          `json:"transaction_count"`
	TurnoverInBase    decimal.Decimal              `json:"turnover_in_base"`
	TotalProfit       decimal.Decimal              `json:"total_profit"`
	ProfitByCurrency  []profit.RealizedProfitEntry `json:"profit_by_currency"`
	DailyProfitMean   *float64                     `json:"daily_profit_mean,omitempty"`
	DailyProfitStdDev *float64                     `json:"daily_profit_stddev,omitempty"`
}

// DailySummary is the bot-facing end-of-day picture.
type DailySummary struct {
	Date     string                   `json:"date"`
	NetFlows []entries.CurrencyAmount `json:"net_flows"`
	Debts    []entries.ClientDebt     `json:"debts"`
	Cash     *entries.CashTotal       `json:"cash"`
}
