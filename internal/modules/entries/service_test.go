package entries

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Office timezone for tests, UTC+6 like Bishkek.
var testZone = time.FixedZone("UTC+6", 6*60*60)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) *Service {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())
	return NewService(repo, "UZS", testZone, zerolog.Nop())
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

// insertAt stores an entry with an explicit timestamp through the repository.
func insertAt(t *testing.T, s *Service, ts time.Time, amount, currency, direction, client string) *Entry {
	t.Helper()
	entry, err := s.repo.Insert(&Entry{
		Amount:        dec(amount),
		CurrencyCode:  currency,
		FlowDirection: direction,
		ClientName:    client,
		CreatedAt:     ts,
	})
	require.NoError(t, err)
	return entry
}

func TestCreate_NormalizesInput(t *testing.T) {
	s := newTestService(t)

	entry, err := s.Create(NewEntry{
		Amount:        dec("150.50"),
		CurrencyCode:  "dollar",
		FlowDirection: "inflow",
		ClientName:    "  Aziz  ",
		Note:          strPtr("  first visit "),
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", entry.CurrencyCode)
	assert.Equal(t, DirectionInflow, entry.FlowDirection)
	assert.Equal(t, "Aziz", entry.ClientName)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "first visit", *entry.Note)
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	stored, err := s.Get(entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Amount.Equal(dec("150.50")))
}

func TestCreate_BlankNoteDropped(t *testing.T) {
	s := newTestService(t)

	entry, err := s.Create(NewEntry{
		Amount:        dec("10"),
		CurrencyCode:  "usd",
		FlowDirection: DirectionOutflow,
		ClientName:    "Aziz",
		Note:          strPtr("   "),
	})
	require.NoError(t, err)
	assert.Nil(t, entry.Note)
}

func TestCreate_Rejections(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name string
		in   NewEntry
	}{
		{
			name: "zero amount",
			in:   NewEntry{Amount: dec("0"), CurrencyCode: "usd", FlowDirection: DirectionInflow, ClientName: "Aziz"},
		},
		{
			name: "negative amount",
			in:   NewEntry{Amount: dec("-5"), CurrencyCode: "usd", FlowDirection: DirectionInflow, ClientName: "Aziz"},
		},
		{
			name: "bad direction",
			in:   NewEntry{Amount: dec("5"), CurrencyCode: "usd", FlowDirection: "SIDEWAYS", ClientName: "Aziz"},
		},
		{
			name: "unknown currency",
			in:   NewEntry{Amount: dec("5"), CurrencyCode: "pesos", FlowDirection: DirectionInflow, ClientName: "Aziz"},
		},
		{
			name: "missing client",
			in:   NewEntry{Amount: dec("5"), CurrencyCode: "usd", FlowDirection: DirectionInflow, ClientName: "  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.in)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestDelete(t *testing.T) {
	s := newTestService(t)

	entry, err := s.Create(NewEntry{
		Amount: dec("5"), CurrencyCode: "usd", FlowDirection: DirectionInflow, ClientName: "Aziz",
	})
	require.NoError(t, err)

	deleted, err := s.Delete(entry.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := s.Get(entry.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err = s.Delete(entry.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestList_FiltersAndPaging(t *testing.T) {
	s := newTestService(t)
	base := time.Date(2024, 3, 10, 10, 0, 0, 0, testZone)

	insertAt(t, s, base, "100", "USD", DirectionInflow, "Aziz")
	insertAt(t, s, base.Add(time.Hour), "200", "USD", DirectionOutflow, "Bekzod")
	insertAt(t, s, base.Add(2*time.Hour), "300", "EUR", DirectionInflow, "Aziz")

	page, err := s.List(Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Entries, 3)
	// Newest first.
	assert.True(t, page.Entries[0].Amount.Equal(dec("300")))

	page, err = s.List(Filter{CurrencyCode: "dollar"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = s.List(Filter{ClientName: "aziz"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = s.List(Filter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Entries, 1)
	assert.True(t, page.Entries[0].Amount.Equal(dec("100")))
}

func TestDailyNetByCurrency_LocalDayBounds(t *testing.T) {
	s := newTestService(t)

	// 2024-03-10 23:30 office time is 17:30 UTC the same day; it must count
	// toward March 10. 2024-03-11 00:30 office time must not.
	lateOnDay := time.Date(2024, 3, 10, 23, 30, 0, 0, testZone)
	nextDay := time.Date(2024, 3, 11, 0, 30, 0, 0, testZone)

	insertAt(t, s, lateOnDay, "100", "USD", DirectionInflow, "Aziz")
	insertAt(t, s, lateOnDay, "30", "USD", DirectionOutflow, "Aziz")
	insertAt(t, s, nextDay, "500", "USD", DirectionInflow, "Aziz")

	net, err := s.DailyNetByCurrency(time.Date(2024, 3, 10, 12, 0, 0, 0, testZone))
	require.NoError(t, err)
	require.Len(t, net, 5)

	byCode := map[string]decimal.Decimal{}
	for _, n := range net {
		byCode[n.CurrencyCode] = n.Amount
	}
	assert.True(t, byCode["USD"].Equal(dec("70")), "got %s", byCode["USD"])
	assert.True(t, byCode["EUR"].IsZero())
}

func TestBalances_ExactDecimals(t *testing.T) {
	s := newTestService(t)
	ts := time.Date(2024, 3, 10, 10, 0, 0, 0, testZone)

	// 0.1 + 0.2 must be exactly 0.3.
	insertAt(t, s, ts, "0.1", "USD", DirectionInflow, "Aziz")
	insertAt(t, s, ts, "0.2", "USD", DirectionInflow, "Aziz")
	insertAt(t, s, ts, "1000000.45", "UZS", DirectionInflow, "Aziz")
	insertAt(t, s, ts, "0.45", "UZS", DirectionOutflow, "Aziz")

	balances, err := s.Balances()
	require.NoError(t, err)
	require.Len(t, balances, 5)

	codes := make([]string, 0, len(balances))
	byCode := map[string]decimal.Decimal{}
	for _, b := range balances {
		codes = append(codes, b.CurrencyCode)
		byCode[b.CurrencyCode] = b.Amount
	}
	assert.Equal(t, []string{"EUR", "KGS", "RUB", "USD", "UZS"}, codes)
	assert.Equal(t, "0.3", byCode["USD"].String())
	assert.Equal(t, "1000000", byCode["UZS"].String())
}

func TestClientDebts_Ordering(t *testing.T) {
	s := newTestService(t)
	ts := time.Date(2024, 3, 10, 10, 0, 0, 0, testZone)

	insertAt(t, s, ts, "500", "USD", DirectionOutflow, "bekzod")
	insertAt(t, s, ts, "200", "USD", DirectionInflow, "bekzod")
	insertAt(t, s, ts, "100", "EUR", DirectionOutflow, "Aziz")
	insertAt(t, s, ts, "50", "USD", DirectionInflow, "Aziz")

	debts, err := s.ClientDebts()
	require.NoError(t, err)
	require.Len(t, debts, 3)

	assert.Equal(t, "Aziz", debts[0].ClientName)
	assert.Equal(t, "EUR", debts[0].CurrencyCode)
	assert.True(t, debts[0].Amount.Equal(dec("100")))

	assert.Equal(t, "Aziz", debts[1].ClientName)
	assert.Equal(t, "USD", debts[1].CurrencyCode)
	assert.True(t, debts[1].Amount.Equal(dec("-50")))

	assert.Equal(t, "bekzod", debts[2].ClientName)
	assert.True(t, debts[2].Amount.Equal(dec("300")))
}

func TestCashTotal_BaseCalledOut(t *testing.T) {
	s := newTestService(t)
	ts := time.Date(2024, 3, 10, 10, 0, 0, 0, testZone)

	insertAt(t, s, ts, "7000000", "UZS", DirectionInflow, "Aziz")
	insertAt(t, s, ts, "2000000", "UZS", DirectionOutflow, "Aziz")
	insertAt(t, s, ts, "300", "USD", DirectionInflow, "Aziz")

	total, err := s.CashTotal()
	require.NoError(t, err)

	assert.Equal(t, "UZS", total.BaseCurrencyCode)
	assert.True(t, total.BaseTotal.Equal(dec("5000000")), "got %s", total.BaseTotal)
	assert.Len(t, total.Balances, 5)
}

func TestForDay_InsertionOrder(t *testing.T) {
	s := newTestService(t)
	ts := time.Date(2024, 3, 10, 9, 0, 0, 0, testZone)

	first := insertAt(t, s, ts, "1", "USD", DirectionInflow, "Aziz")
	second := insertAt(t, s, ts, "2", "USD", DirectionInflow, "Aziz")
	insertAt(t, s, ts.AddDate(0, 0, 1), "3", "USD", DirectionInflow, "Aziz")

	list, err := s.ForDay(ts)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}
