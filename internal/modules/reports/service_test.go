package reports

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/kassaflow/kassa/internal/modules/clients"
	"github.com/kassaflow/kassa/internal/modules/currencies"
	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/transactions"
)

var testZone = time.FixedZone("UTC+6", 6*60*60)

type testEnv struct {
	service    *Service
	txRepo     *transactions.Repository
	entryRepo  *entries.Repository
	currencies *currencies.Repository
}

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, schema := range []string{currencies.Schema, clients.Schema, entries.Schema, transactions.Schema} {
		_, err = db.Exec(schema)
		require.NoError(t, err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t)
	currencyRepo := currencies.NewRepository(db, zerolog.Nop())
	clientRepo := clients.NewRepository(db, zerolog.Nop())
	txRepo := transactions.NewRepository(db, zerolog.Nop())
	entryRepo := entries.NewRepository(db, zerolog.Nop())

	txService := transactions.NewService(txRepo, currencyRepo, clientRepo, "UZS", zerolog.Nop())
	entryService := entries.NewService(entryRepo, "UZS", testZone, zerolog.Nop())

	return &testEnv{
		service:    NewService(txService, entryService, "UZS", testZone, zerolog.Nop()),
		txRepo:     txRepo,
		entryRepo:  entryRepo,
		currencies: currencyRepo,
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// utc builds a March 2024 timestamp. The office zone is UTC+6, so local
// day N spans [N-1 18:00, N 18:00) in UTC.
func utc(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func localDay(day int) time.Time {
	return time.Date(2024, 3, day, 0, 0, 0, 0, testZone)
}

func (env *testEnv) insertDeal(t *testing.T, ts time.Time, fromCode, toCode, fromAmount, toAmount, rate string) {
	t.Helper()
	from, err := env.currencies.GetByCode(fromCode)
	require.NoError(t, err)
	require.NotNil(t, from)
	to, err := env.currencies.GetByCode(toCode)
	require.NoError(t, err)
	require.NotNil(t, to)

	_, err = env.txRepo.Insert(&transactions.Transaction{
		FromCurrencyID: from.ID,
		ToCurrencyID:   to.ID,
		FromAmount:     dec(fromAmount),
		ToAmount:       dec(toAmount),
		Rate:           dec(rate),
		CreatedAt:      ts,
	})
	require.NoError(t, err)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func TestProfitReport_FullHistory(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, utc(1, 5), "UZS", "USD", "1250000", "100", "12500")
	env.insertDeal(t, utc(2, 5), "USD", "UZS", "50", "640000", "12800")
	env.insertDeal(t, utc(5, 5), "USD", "UZS", "50", "630000", "12600")

	report, err := env.service.ProfitReport(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "UZS", report.BaseCurrencyCode)
	assertDecimal(t, "20000", report.TotalProfitInBase)
	require.Len(t, report.Breakdown, 1)
	assert.Equal(t, "USD", report.Breakdown[0].CurrencyCode)
}

func TestProfitReport_StartExcludesEarlySalesButKeepsInventory(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, utc(1, 5), "UZS", "USD", "1250000", "100", "12500")
	env.insertDeal(t, utc(2, 5), "USD", "UZS", "50", "640000", "12800")
	env.insertDeal(t, utc(5, 5), "USD", "UZS", "50", "630000", "12600")

	start := localDay(3)
	report, err := env.service.ProfitReport(&start, nil)
	require.NoError(t, err)

	// The second sale still sells at the average cost of 12500 built
	// before the window.
	assertDecimal(t, "5000", report.TotalProfitInBase)
}

func TestProfitReport_InclusiveEnd(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, utc(1, 5), "UZS", "USD", "1250000", "100", "12500")
	env.insertDeal(t, utc(2, 5), "USD", "UZS", "50", "640000", "12800")
	env.insertDeal(t, utc(5, 5), "USD", "UZS", "50", "630000", "12600")

	end := localDay(3).AddDate(0, 0, 1).Add(-time.Second)
	report, err := env.service.ProfitReport(nil, &end)
	require.NoError(t, err)

	assertDecimal(t, "15000", report.TotalProfitInBase)
}

func TestDaily(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, utc(9, 5), "UZS", "USD", "1250000", "100", "12500")
	env.insertDeal(t, utc(10, 5), "USD", "UZS", "50", "640000", "12800")
	env.insertDeal(t, utc(11, 5), "USD", "UZS", "25", "320000", "12800")

	report, err := env.service.Daily(time.Date(2024, 3, 10, 15, 0, 0, 0, testZone))
	require.NoError(t, err)

	assert.Equal(t, "daily", report.Period)
	assert.Equal(t, "2024-03-10", report.FromDate)
	assert.Equal(t, "2024-03-10", report.ToDate)
	assert.Equal(t, 1, report.TransactionCount)
	assertDecimal(t, "640000", report.TurnoverInBase)
	assertDecimal(t, "15000", report.TotalProfit)
	require.Len(t, report.ProfitByCurrency, 1)
	assert.Equal(t, "USD", report.ProfitByCurrency[0].CurrencyCode)
	assertDecimal(t, "15000", report.ProfitByCurrency[0].ProfitInBase)
	assert.Nil(t, report.DailyProfitMean)
}

func TestDaily_LocalDayBoundary(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, utc(9, 5), "UZS", "USD", "1250000", "100", "12500")
	// 17:30 UTC is 23:30 local on the 9th, 18:30 UTC is 00:30 local on
	// the 10th. Both fall on March 9 in UTC.
	env.insertDeal(t, time.Date(2024, 3, 9, 17, 30, 0, 0, time.UTC), "USD", "UZS", "50", "640000", "12800")
	env.insertDeal(t, time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC), "USD", "UZS", "25", "320000", "12800")

	ninth, err := env.service.Daily(localDay(9))
	require.NoError(t, err)
	assertDecimal(t, "15000", ninth.TotalProfit)
	assert.Equal(t, 2, ninth.TransactionCount)
	assertDecimal(t, "1890000", ninth.TurnoverInBase)

	tenth, err := env.service.Daily(localDay(10))
	require.NoError(t, err)
	assertDecimal(t, "7500", tenth.TotalProfit)
	assert.Equal(t, 1, tenth.TransactionCount)
}

func TestMonthly_CompletedMonth(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC), "UZS", "USD", "3600000", "300", "12000")
	env.insertDeal(t, utc(5, 5), "USD", "UZS", "100", "1250000", "12500")
	env.insertDeal(t, utc(20, 5), "USD", "UZS", "100", "1210000", "12100")
	env.insertDeal(t, time.Date(2024, 4, 2, 5, 0, 0, 0, time.UTC), "USD", "UZS", "50", "640000", "12800")

	env.service.now = func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}

	report, err := env.service.Monthly(2024, time.March)
	require.NoError(t, err)

	assert.Equal(t, "monthly", report.Period)
	assert.Equal(t, "2024-03-01", report.FromDate)
	assert.Equal(t, "2024-03-31", report.ToDate)
	assert.Equal(t, 2, report.TransactionCount)
	assertDecimal(t, "2460000", report.TurnoverInBase)
	assertDecimal(t, "60000", report.TotalProfit)

	require.NotNil(t, report.DailyProfitMean)
	require.NotNil(t, report.DailyProfitStdDev)
	mean := 60000.0 / 31.0
	assert.InDelta(t, mean, *report.DailyProfitMean, 1e-9)

	// Sample standard deviation over 31 days: two profitable days, the
	// rest zero.
	variance := (math.Pow(50000-mean, 2) + math.Pow(10000-mean, 2) + 29*math.Pow(0-mean, 2)) / 30
	assert.InDelta(t, math.Sqrt(variance), *report.DailyProfitStdDev, 1e-6)
}

func TestMonthly_CurrentMonthSeriesStopsAtToday(t *testing.T) {
	env := newTestEnv(t)
	env.insertDeal(t, time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC), "UZS", "USD", "3600000", "300", "12000")
	env.insertDeal(t, utc(5, 5), "USD", "UZS", "100", "1250000", "12500")

	// March 10, 15:00 office time.
	env.service.now = func() time.Time {
		return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	}

	report, err := env.service.Monthly(2024, time.March)
	require.NoError(t, err)

	assertDecimal(t, "50000", report.TotalProfit)
	require.NotNil(t, report.DailyProfitMean)
	// Ten elapsed days, one with 50000 profit.
	assert.InDelta(t, 5000.0, *report.DailyProfitMean, 1e-9)
}

func TestMonthly_BeforeMonthStarts(t *testing.T) {
	env := newTestEnv(t)
	env.service.now = func() time.Time {
		return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC)
	}

	report, err := env.service.Monthly(2024, time.March)
	require.NoError(t, err)

	require.NotNil(t, report.DailyProfitMean)
	require.NotNil(t, report.DailyProfitStdDev)
	assert.Zero(t, *report.DailyProfitMean)
	assert.Zero(t, *report.DailyProfitStdDev)
}

func TestMonthly_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Monthly(2024, time.Month(13))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = env.service.Monthly(2024, time.Month(0))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = env.service.Monthly(1999, time.March)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t)

	inserts := []entries.Entry{
		{Amount: dec("100"), CurrencyCode: "USD", FlowDirection: entries.DirectionInflow, ClientName: "Aziz", CreatedAt: utc(10, 5)},
		{Amount: dec("30"), CurrencyCode: "USD", FlowDirection: entries.DirectionOutflow, ClientName: "Aziz", CreatedAt: utc(10, 6)},
		{Amount: dec("500000"), CurrencyCode: "UZS", FlowDirection: entries.DirectionInflow, ClientName: "Bekzod", CreatedAt: utc(11, 5)},
	}
	for i := range inserts {
		_, err := env.entryRepo.Insert(&inserts[i])
		require.NoError(t, err)
	}

	summary, err := env.service.DailySummary(localDay(10))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10", summary.Date)

	require.Len(t, summary.NetFlows, 5)
	byCode := map[string]decimal.Decimal{}
	for _, flow := range summary.NetFlows {
		byCode[flow.CurrencyCode] = flow.Amount
	}
	assertDecimal(t, "70", byCode["USD"])
	assertDecimal(t, "0", byCode["UZS"])

	require.Len(t, summary.Debts, 2)
	assert.Equal(t, "Aziz", summary.Debts[0].ClientName)
	assertDecimal(t, "-70", summary.Debts[0].Amount)
	assert.Equal(t, "Bekzod", summary.Debts[1].ClientName)
	assertDecimal(t, "-500000", summary.Debts[1].Amount)

	require.NotNil(t, summary.Cash)
	assert.Equal(t, "UZS", summary.Cash.BaseCurrencyCode)
	assertDecimal(t, "500000", summary.Cash.BaseTotal)
}
