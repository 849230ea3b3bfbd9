package backup

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/reports"
)

const timeFormat = "2006-01-02 15:04:05"

// EntriesCSV renders the day's cash entries, one row per entry.
func EntriesCSV(items []entries.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "amount", "currency_code", "flow_direction", "client_name", "note", "created_at"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, e := range items {
		note := ""
		if e.Note != nil {
			note = *e.Note
		}
		record := []string{
			strconv.FormatInt(e.ID, 10),
			e.Amount.String(),
			e.CurrencyCode,
			e.FlowDirection,
			e.ClientName,
			note,
			e.CreatedAt.Format(timeFormat),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// ReportCSV flattens the daily report into one row per profit
// currency, repeating the day-level columns.
func ReportCSV(report *reports.PeriodReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"date", "transaction_count", "turnover_in_base", "daily_profit", "profit_currency", "profit_in_base"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	day := []string{
		report.FromDate,
		strconv.Itoa(report.TransactionCount),
		report.TurnoverInBase.String(),
		report.TotalProfit.String(),
	}

	if len(report.ProfitByCurrency) == 0 {
		record := append(append([]string{}, day...), "", "")
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	for _, entry := range report.ProfitByCurrency {
		record := append(append([]string{}, day...), entry.CurrencyCode, entry.ProfitInBase.String())
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}
