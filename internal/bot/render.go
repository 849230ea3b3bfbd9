package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kassaflow/kassa/internal/ai"
	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/reports"
)

const greeting = `Salom! I keep the books of the exchange office.

➕ New Entry - record a cash movement step by step
📊 Reports - today's numbers
🤖 AI Assistant - ask about the books in plain words
📤 Export CSV - today's entries as a file

You can also just write an entry, like: Aziz 100 usd oldim
Quick commands: /q <entry>, /delete <id>, /export_today`

func directionLabel(direction string) string {
	if direction == entries.DirectionOutflow {
		return "📤 OUTFLOW"
	}
	return "📥 INFLOW"
}

func renderEntry(e *entries.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s %s\n", e.ID, directionLabel(e.FlowDirection), e.Amount, e.CurrencyCode)
	fmt.Fprintf(&b, "Client: %s", e.ClientName)
	if e.Note != nil {
		fmt.Fprintf(&b, "\nNote: %s", *e.Note)
	}
	return b.String()
}

func renderDraft(d *Draft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n", directionLabel(d.FlowDirection), d.Amount, d.CurrencyCode)
	fmt.Fprintf(&b, "Client: %s", d.ClientName)
	if d.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", d.Note)
	}
	return b.String()
}

// renderDailySummary combines the cash-entry picture with the exchange
// figures into the text behind the Reports button.
func renderDailySummary(summary *reports.DailySummary, daily *reports.PeriodReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s\n", summary.Date)

	var flows []entries.CurrencyAmount
	for _, f := range summary.NetFlows {
		if !f.Amount.IsZero() {
			flows = append(flows, f)
		}
	}
	if len(flows) == 0 {
		b.WriteString("\nNo cash entries today.\n")
	} else {
		b.WriteString("\nNet flows today:\n")
		for _, f := range flows {
			fmt.Fprintf(&b, "  %s: %s\n", f.CurrencyCode, f.Amount)
		}
	}

	base := summary.Cash.BaseCurrencyCode
	fmt.Fprintf(&b, "\nExchange: %d deals, turnover %s %s\n", daily.TransactionCount, daily.TurnoverInBase, base)
	fmt.Fprintf(&b, "Profit today: %s %s\n", daily.TotalProfit, base)
	for _, p := range daily.ProfitByCurrency {
		fmt.Fprintf(&b, "  %s: %s\n", p.CurrencyCode, p.ProfitInBase)
	}

	b.WriteString("\nCash now:\n")
	for _, c := range summary.Cash.Balances {
		fmt.Fprintf(&b, "  %s: %s\n", c.CurrencyCode, c.Amount)
	}
	fmt.Fprintf(&b, "Base total: %s %s\n", summary.Cash.BaseTotal, base)

	if len(summary.Debts) > 0 {
		b.WriteString("\nOwed to the office:\n")
		for _, d := range summary.Debts {
			fmt.Fprintf(&b, "  %s: %s %s\n", d.ClientName, d.Amount, d.CurrencyCode)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func draftFromParsed(p *ai.ParsedEntry) *Draft {
	d := &Draft{
		Amount:        p.Amount.String(),
		CurrencyCode:  p.CurrencyCode,
		FlowDirection: p.FlowDirection,
		ClientName:    p.ClientName,
	}
	if p.Note != nil {
		d.Note = *p.Note
	}
	return d
}

func draftToNewEntry(d *Draft, userID int64) (entries.NewEntry, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return entries.NewEntry{}, fmt.Errorf("failed to parse draft amount: %w", err)
	}
	in := entries.NewEntry{
		Amount:              amount,
		CurrencyCode:        d.CurrencyCode,
		FlowDirection:       d.FlowDirection,
		ClientName:          d.ClientName,
		CreatedByTelegramID: userID,
	}
	if d.Note != "" {
		note := d.Note
		in.Note = &note
	}
	return in, nil
}
