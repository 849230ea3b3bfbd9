package reports

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/transactions"
	"github.com/kassaflow/kassa/internal/profit"
)

// ErrInvalid marks validation failures callers should surface as bad input.
var ErrInvalid = errors.New("invalid report request")

// TransactionSource supplies the exchange history for profit computation.
type TransactionSource interface {
	ListOrdered(until *time.Time) ([]transactions.Transaction, error)
	CountAndTurnover(from, to time.Time) (int, decimal.Decimal, error)
}

// EntrySource supplies cash entry aggregates for the daily summary.
type EntrySource interface {
	DailyNetByCurrency(date time.Time) ([]entries.CurrencyAmount, error)
	ClientDebts() ([]entries.ClientDebt, error)
	CashTotal() (*entries.CashTotal, error)
}

// Service builds period reports on top of the profit engine.
type Service struct {
	transactions TransactionSource
	entries      EntrySource
	baseCurrency string
	location     *time.Location
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a new report service.
func NewService(transactionSource TransactionSource, entrySource EntrySource, baseCurrency string, location *time.Location, log zerolog.Logger) *Service {
	return &Service{
		transactions: transactionSource,
		entries:      entrySource,
		baseCurrency: baseCurrency,
		location:     location,
		now:          time.Now,
		log:          log.With().Str("service", "reports").Logger(),
	}
}

// ProfitReport computes realized profit for the window. Bounds are
// inclusive instants; a nil startAt counts profit from the beginning, a nil
// endAt up to the latest transaction. Inventory is always rebuilt from the
// full history before the window so average costs are correct.
func (s *Service) ProfitReport(startAt, endAt *time.Time) (*profit.Report, error) {
	var until *time.Time
	if endAt != nil {
		// ListOrdered is strictly-before; timestamps have second
		// granularity, so one second past the inclusive bound fetches
		// everything up to and including it.
		u := endAt.Add(time.Second)
		until = &u
	}

	history, err := s.transactions.ListOrdered(until)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	report, err := profit.Compute(toEngine(history), s.baseCurrency, startAt, endAt)
	if err != nil {
		return nil, fmt.Errorf("failed to compute profit: %w", err)
	}
	return report, nil
}

// Daily builds the report for one office-local day.
func (s *Service) Daily(date time.Time) (*PeriodReport, error) {
	start, end := s.dayBounds(date)
	engineEnd := end.Add(-time.Second)

	report, err := s.ProfitReport(&start, &engineEnd)
	if err != nil {
		return nil, err
	}
	count, turnover, err := s.transactions.CountAndTurnover(start, end)
	if err != nil {
		return nil, err
	}

	return &PeriodReport{
		Period:           "daily",
		FromDate:         start.Format("2006-01-02"),
		ToDate:           start.Format("2006-01-02"),
		TransactionCount: count,
		TurnoverInBase:   turnover,
		TotalProfit:      report.TotalProfitInBase,
		ProfitByCurrency: report.Breakdown,
	}, nil
}

// Monthly builds the report for one calendar month, with mean and standard
// deviation over the month's per-day profit series.
func (s *Service) Monthly(year int, month time.Month) (*PeriodReport, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be 1-12", ErrInvalid)
	}
	if year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalid)
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, s.location)
	end := start.AddDate(0, 1, 0)
	engineEnd := end.Add(-time.Second)

	count, turnover, err := s.transactions.CountAndTurnover(start, end)
	if err != nil {
		return nil, err
	}

	// ListOrdered is strictly-before, so the month end fetches everything
	// up to and including engineEnd.
	until := end
	history, err := s.transactions.ListOrdered(&until)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	engineHistory := toEngine(history)

	report, err := profit.Compute(engineHistory, s.baseCurrency, &start, &engineEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to compute profit: %w", err)
	}

	mean, stddev, err := s.dailyProfitStats(engineHistory, start, end)
	if err != nil {
		return nil, err
	}

	return &PeriodReport{
		Period:            "monthly",
		FromDate:          start.Format("2006-01-02"),
		ToDate:            end.AddDate(0, 0, -1).Format("2006-01-02"),
		TransactionCount:  count,
		TurnoverInBase:    turnover,
		TotalProfit:       report.TotalProfitInBase,
		ProfitByCurrency:  report.Breakdown,
		DailyProfitMean:   &mean,
		DailyProfitStdDev: &stddev,
	}, nil
}

// DailySummary aggregates the end-of-day picture the bot renders.
func (s *Service) DailySummary(date time.Time) (*DailySummary, error) {
	start, _ := s.dayBounds(date)

	netFlows, err := s.entries.DailyNetByCurrency(date)
	if err != nil {
		return nil, err
	}
	debts, err := s.entries.ClientDebts()
	if err != nil {
		return nil, err
	}
	cash, err := s.entries.CashTotal()
	if err != nil {
		return nil, err
	}

	return &DailySummary{
		Date:     start.Format("2006-01-02"),
		NetFlows: netFlows,
		Debts:    debts,
		Cash:     cash,
	}, nil
}

// ParseDay parses a YYYY-MM-DD string as a date in the office timezone.
func (s *Service) ParseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrInvalid, value)
	}
	return day, nil
}

// dailyProfitStats folds the per-day profit series of [start, end) into
// mean and standard deviation. For the current month the series stops at
// today; money becomes float64 only here.
func (s *Service) dailyProfitStats(history []profit.Transaction, start, end time.Time) (float64, float64, error) {
	seriesEnd := end
	if now := s.now().In(s.location); now.Before(end) {
		if now.Before(start) {
			return 0, 0, nil
		}
		seriesEnd = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location).AddDate(0, 0, 1)
	}

	var series []float64
	for day := start; day.Before(seriesEnd); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1).Add(-time.Second)
		dayReport, err := profit.Compute(history, s.baseCurrency, &day, &dayEnd)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to compute daily profit series: %w", err)
		}
		series = append(series, dayReport.TotalProfitInBase.InexactFloat64())
	}

	if len(series) == 0 {
		return 0, 0, nil
	}
	mean := stat.Mean(series, nil)
	stddev := 0.0
	if len(series) > 1 {
		stddev = stat.StdDev(series, nil)
	}
	return mean, stddev, nil
}

func (s *Service) dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.In(s.location)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}

func toEngine(history []transactions.Transaction) []profit.Transaction {
	out := make([]profit.Transaction, 0, len(history))
	for _, tx := range history {
		out = append(out, profit.Transaction{
			ID:           tx.ID,
			FromCurrency: tx.FromCurrencyCode,
			ToCurrency:   tx.ToCurrencyCode,
			FromAmount:   tx.FromAmount,
			ToAmount:     tx.ToAmount,
			Rate:         tx.Rate,
			Timestamp:    tx.CreatedAt,
		})
	}
	return out
}
