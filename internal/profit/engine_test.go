package profit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "UZS"

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(n int) time.Time {
	return time.Date(2024, time.March, n, 12, 0, 0, 0, time.UTC)
}

// buy purchases qty units of code, paying cost in base currency.
func buy(id int64, ts time.Time, code, cost, qty string) Transaction {
	return Transaction{
		ID:           id,
		FromCurrency: testBase,
		ToCurrency:   code,
		FromAmount:   dec(cost),
		ToAmount:     dec(qty),
		Rate:         dec("1"),
		Timestamp:    ts,
	}
}

// sell disposes qty units of code for proceeds in base currency.
func sell(id int64, ts time.Time, code, qty, proceeds string) Transaction {
	return Transaction{
		ID:           id,
		FromCurrency: code,
		ToCurrency:   testBase,
		FromAmount:   dec(qty),
		ToAmount:     dec(proceeds),
		Rate:         dec("1"),
		Timestamp:    ts,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got.String())
}

func TestCompute_EmptyInput(t *testing.T) {
	report, err := Compute(nil, testBase, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, testBase, report.BaseCurrencyCode)
	assert.Empty(t, report.Breakdown)
	assertDecimal(t, "0", report.TotalProfitInBase)
}

func TestCompute_BuysOnlyProduceNoEntries(t *testing.T) {
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		buy(2, day(2), "EUR", "500", "40"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, report.Breakdown)
	assertDecimal(t, "0", report.TotalProfitInBase)
}

func TestCompute_BasicRoundTrip(t *testing.T) {
	// Buy 100 USD for 1000 (average cost 10), sell half for 600.
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "50", "600"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	require.Len(t, report.Breakdown, 1)
	assert.Equal(t, "USD", report.Breakdown[0].CurrencyCode)
	assertDecimal(t, "100", report.Breakdown[0].ProfitInBase)
	assertDecimal(t, "100", report.TotalProfitInBase)
}

func TestCompute_RemainderKeepsAverageCost(t *testing.T) {
	// After selling half the position, the remaining 50 units must still
	// carry cost 500. Selling them for 700 realizes exactly 200 more.
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "50", "600"),
		sell(3, day(3), "USD", "50", "700"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "300", report.TotalProfitInBase)
}

func TestCompute_WeightedAverageAcrossBuys(t *testing.T) {
	// 100 units at 10 plus 100 units at 20 blend to an average cost of 15,
	// so selling all 200 for 3600 realizes 600.
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		buy(2, day(2), "USD", "2000", "100"),
		sell(3, day(3), "USD", "200", "3600"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "600", report.TotalProfitInBase)
}

func TestCompute_OrderOfBuysBeforeSaleIsIrrelevant(t *testing.T) {
	forward, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		buy(2, day(2), "USD", "2000", "100"),
		sell(3, day(3), "USD", "100", "1800"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	swapped, err := Compute([]Transaction{
		buy(1, day(1), "USD", "2000", "100"),
		buy(2, day(2), "USD", "1000", "100"),
		sell(3, day(3), "USD", "100", "1800"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	// Average cost 15 either way, profit 1800 - 1500.
	assertDecimal(t, "300", forward.TotalProfitInBase)
	assert.Equal(t, forward, swapped)
}

func TestCompute_SaleBeforeSecondBuyChangesProfit(t *testing.T) {
	// A sale sees only the inventory accumulated before it. Moving the sale
	// ahead of the second buy drops the average cost from 15 to 10.
	late, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		buy(2, day(2), "USD", "2000", "100"),
		sell(3, day(3), "USD", "100", "1800"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	early, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "100", "1800"),
		buy(3, day(3), "USD", "2000", "100"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "300", late.TotalProfitInBase)
	assertDecimal(t, "800", early.TotalProfitInBase)
}

func TestCompute_FullLiquidationZeroesCostBasis(t *testing.T) {
	// If liquidation left any residue in the cost basis, it would leak into
	// the average cost of the next position and skew the second profit.
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "100", "1100"),
		buy(3, day(3), "USD", "600", "50"),
		sell(4, day(4), "USD", "50", "700"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "200", report.TotalProfitInBase)
}

func TestCompute_WindowExcludesEarlyProfitButNotInventory(t *testing.T) {
	// The day-1 buy and the day-2 sale happen before the window. The buy
	// must still set the average cost to 10 and the day-2 sale must still
	// consume 50 units of it, so the day-5 sale realizes 700 - 500.
	startAt := day(3)
	endAt := day(10)

	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "50", "600"),
		sell(3, day(5), "USD", "50", "700"),
	}, testBase, &startAt, &endAt)
	require.NoError(t, err)

	require.Len(t, report.Breakdown, 1)
	assertDecimal(t, "200", report.Breakdown[0].ProfitInBase)
	assertDecimal(t, "200", report.TotalProfitInBase)
}

func TestCompute_CurrencyWithOnlyPreWindowSalesIsOmitted(t *testing.T) {
	startAt := day(3)

	report, err := Compute([]Transaction{
		buy(1, day(1), "EUR", "400", "40"),
		sell(2, day(2), "EUR", "40", "500"),
		buy(3, day(1), "USD", "1000", "100"),
		sell(4, day(5), "USD", "100", "1200"),
	}, testBase, &startAt, nil)
	require.NoError(t, err)

	require.Len(t, report.Breakdown, 1)
	assert.Equal(t, "USD", report.Breakdown[0].CurrencyCode)
	assertDecimal(t, "200", report.TotalProfitInBase)
}

func TestCompute_EndAtExcludesLaterTransactions(t *testing.T) {
	endAt := day(5)

	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "50", "600"),
		buy(3, day(8), "USD", "3000", "100"),
		sell(4, day(9), "USD", "50", "900"),
	}, testBase, nil, &endAt)
	require.NoError(t, err)

	assertDecimal(t, "100", report.TotalProfitInBase)
}

func TestCompute_MultiCurrencyIndependence(t *testing.T) {
	usd := []Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(3, day(3), "USD", "60", "720"),
	}
	eur := []Transaction{
		buy(2, day(2), "EUR", "900", "60"),
		sell(4, day(4), "EUR", "30", "480"),
	}
	mixed := []Transaction{usd[0], eur[0], usd[1], eur[1]}

	combined, err := Compute(mixed, testBase, nil, nil)
	require.NoError(t, err)
	usdOnly, err := Compute(usd, testBase, nil, nil)
	require.NoError(t, err)
	eurOnly, err := Compute(eur, testBase, nil, nil)
	require.NoError(t, err)

	require.Len(t, combined.Breakdown, 2)
	assert.Equal(t, "EUR", combined.Breakdown[0].CurrencyCode)
	assert.Equal(t, "USD", combined.Breakdown[1].CurrencyCode)
	assertDecimal(t, eurOnly.TotalProfitInBase.String(), combined.Breakdown[0].ProfitInBase)
	assertDecimal(t, usdOnly.TotalProfitInBase.String(), combined.Breakdown[1].ProfitInBase)
	assertDecimal(t, usdOnly.TotalProfitInBase.Add(eurOnly.TotalProfitInBase).String(), combined.TotalProfitInBase)
}

func TestCompute_Deterministic(t *testing.T) {
	transactions := []Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		buy(2, day(1), "EUR", "500", "40"),
		buy(3, day(2), "KGS", "300", "25000"),
		sell(4, day(3), "USD", "70", "810"),
		sell(5, day(3), "EUR", "10", "130"),
		sell(6, day(4), "KGS", "12000", "150"),
	}

	first, err := Compute(transactions, testBase, nil, nil)
	require.NoError(t, err)
	second, err := Compute(transactions, testBase, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompute_OversellUsesPreSaleAverageCost(t *testing.T) {
	// Selling 150 out of a 100-unit position applies the average cost of 10
	// to the whole sale; the position goes to -50 without error.
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "150", "1800"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "300", report.TotalProfitInBase)
}

func TestCompute_SalesBelowZeroQuantityCostNothing(t *testing.T) {
	// Once the position is at or below zero, further sales have average
	// cost 0, so the whole proceeds are profit.
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "150", "1800"),
		sell(3, day(3), "USD", "10", "120"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	// 300 from the oversell plus the full 120.
	assertDecimal(t, "420", report.TotalProfitInBase)
}

func TestCompute_SaleWithoutPriorInventory(t *testing.T) {
	report, err := Compute([]Transaction{
		sell(1, day(1), "USD", "100", "1200"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	assertDecimal(t, "1200", report.TotalProfitInBase)
}

func TestCompute_IgnoresCrossPairsAndBaseToBase(t *testing.T) {
	plain := []Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(4, day(4), "USD", "100", "1300"),
	}
	noisy := []Transaction{
		plain[0],
		{ID: 2, FromCurrency: "USD", ToCurrency: "EUR", FromAmount: dec("50"), ToAmount: dec("45"), Rate: dec("0.9"), Timestamp: day(2)},
		{ID: 3, FromCurrency: testBase, ToCurrency: testBase, FromAmount: dec("10"), ToAmount: dec("10"), Rate: dec("1"), Timestamp: day(3)},
		plain[1],
	}

	want, err := Compute(plain, testBase, nil, nil)
	require.NoError(t, err)
	got, err := Compute(noisy, testBase, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestCompute_ManyPartialSalesStayExact(t *testing.T) {
	// 125 sales of 8 units each, at average cost 8, must drain the position
	// to exactly zero with no accumulated drift, leaving the follow-up
	// position's profit exact as well.
	transactions := []Transaction{buy(1, day(1), "USD", "8000", "1000")}
	ts := day(2)
	for i := 0; i < 125; i++ {
		ts = ts.Add(time.Minute)
		transactions = append(transactions, sell(int64(i+2), ts, "USD", "8", "70"))
	}
	transactions = append(transactions,
		buy(200, ts.Add(time.Hour), "USD", "50", "10"),
		sell(201, ts.Add(2*time.Hour), "USD", "10", "51"),
	)

	report, err := Compute(transactions, testBase, nil, nil)
	require.NoError(t, err)

	// 125 * (70 - 64) + (51 - 50).
	assertDecimal(t, "751", report.TotalProfitInBase)
}

func TestCompute_RejectsMalformedTransactions(t *testing.T) {
	valid := buy(1, day(1), "USD", "1000", "100")

	tests := []struct {
		name    string
		tx      Transaction
		message string
	}{
		{
			name:    "missing from currency",
			tx:      Transaction{ID: 2, ToCurrency: "USD", FromAmount: dec("10"), ToAmount: dec("1"), Timestamp: day(2)},
			message: "missing currency code",
		},
		{
			name:    "missing to currency",
			tx:      Transaction{ID: 2, FromCurrency: testBase, FromAmount: dec("10"), ToAmount: dec("1"), Timestamp: day(2)},
			message: "missing currency code",
		},
		{
			name:    "zero from amount",
			tx:      Transaction{ID: 2, FromCurrency: testBase, ToCurrency: "USD", FromAmount: dec("0"), ToAmount: dec("1"), Timestamp: day(2)},
			message: "from_amount must be positive",
		},
		{
			name:    "negative to amount",
			tx:      Transaction{ID: 2, FromCurrency: testBase, ToCurrency: "USD", FromAmount: dec("10"), ToAmount: dec("-1"), Timestamp: day(2)},
			message: "to_amount must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Compute([]Transaction{valid, tt.tx}, testBase, nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), "transaction 2")
			assert.Nil(t, report)
		})
	}
}

func TestCompute_ZeroProfitSaleStillListed(t *testing.T) {
	report, err := Compute([]Transaction{
		buy(1, day(1), "USD", "1000", "100"),
		sell(2, day(2), "USD", "50", "500"),
	}, testBase, nil, nil)
	require.NoError(t, err)

	require.Len(t, report.Breakdown, 1)
	assert.Equal(t, "USD", report.Breakdown[0].CurrencyCode)
	assertDecimal(t, "0", report.Breakdown[0].ProfitInBase)
}
