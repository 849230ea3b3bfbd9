package profit

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Compute folds an ordered transaction stream into realized profit per
// foreign currency.
//
// The caller must supply transactions sorted by timestamp, ties broken by
// insertion order; the engine never reorders them, because the average cost
// at any sale depends on everything that happened before it.
//
// startAt only gates which sales count toward the report. Transactions
// before startAt still build and deplete inventory so that the average cost
// at the window start reflects the full history. Transactions after endAt
// are skipped outright.
//
// Any transaction with a missing currency code or a non-positive amount
// aborts the whole computation. Skipping a bad record would silently corrupt
// the average-cost trajectory of its currency, so rejection is total.
func Compute(transactions []Transaction, baseCurrency string, startAt, endAt *time.Time) (*Report, error) {
	inventory := make(map[string]*InventoryState)
	realized := make(map[string]decimal.Decimal)

	for i := range transactions {
		tx := &transactions[i]

		if err := validate(tx); err != nil {
			return nil, err
		}
		if endAt != nil && tx.Timestamp.After(*endAt) {
			continue
		}

		switch {
		case tx.FromCurrency == baseCurrency && tx.ToCurrency != baseCurrency:
			// Buying foreign currency with base: blend cost into the position.
			state := position(inventory, tx.ToCurrency)
			state.Quantity = state.Quantity.Add(tx.ToAmount)
			state.CostBasisInBase = state.CostBasisInBase.Add(tx.FromAmount)

		case tx.FromCurrency != baseCurrency && tx.ToCurrency == baseCurrency:
			// Selling foreign currency for base. The average cost is taken
			// once, from the pre-sale quantity; a sale that exceeds the
			// holding is not split into tranches. At or below zero quantity
			// the units cost nothing further.
			state := position(inventory, tx.FromCurrency)

			averageCost := decimal.Zero
			if state.Quantity.IsPositive() {
				averageCost = state.CostBasisInBase.Div(state.Quantity)
			}
			costOfGoodsSold := averageCost.Mul(tx.FromAmount)
			saleProfit := tx.ToAmount.Sub(costOfGoodsSold)

			if startAt == nil || !tx.Timestamp.Before(*startAt) {
				realized[tx.FromCurrency] = realized[tx.FromCurrency].Add(saleProfit)
			}

			// Remove only the proportional cost of the sold units so the
			// average cost of the remainder is unchanged.
			state.Quantity = state.Quantity.Sub(tx.FromAmount)
			state.CostBasisInBase = state.CostBasisInBase.Sub(costOfGoodsSold)

		default:
			// Cross pairs and base-to-base exchanges carry no inventory
			// meaning here.
		}
	}

	return buildReport(baseCurrency, realized), nil
}

func validate(tx *Transaction) error {
	if tx.FromCurrency == "" || tx.ToCurrency == "" {
		return fmt.Errorf("transaction %d: missing currency code", tx.ID)
	}
	if !tx.FromAmount.IsPositive() {
		return fmt.Errorf("transaction %d: from_amount must be positive, got %s", tx.ID, tx.FromAmount)
	}
	if !tx.ToAmount.IsPositive() {
		return fmt.Errorf("transaction %d: to_amount must be positive, got %s", tx.ID, tx.ToAmount)
	}
	return nil
}

func position(inventory map[string]*InventoryState, code string) *InventoryState {
	state, ok := inventory[code]
	if !ok {
		state = &InventoryState{}
		inventory[code] = state
	}
	return state
}

func buildReport(baseCurrency string, realized map[string]decimal.Decimal) *Report {
	codes := make([]string, 0, len(realized))
	for code := range realized {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	report := &Report{
		BaseCurrencyCode: baseCurrency,
		Breakdown:        make([]RealizedProfitEntry, 0, len(codes)),
	}
	for _, code := range codes {
		entry := RealizedProfitEntry{CurrencyCode: code, ProfitInBase: realized[code]}
		report.Breakdown = append(report.Breakdown, entry)
		report.TotalProfitInBase = report.TotalProfitInBase.Add(entry.ProfitInBase)
	}
	return report
}
