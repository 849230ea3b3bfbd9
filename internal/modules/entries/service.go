package entries

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kassaflow/kassa/internal/modules/currencies"
)

// ErrInvalid marks validation failures callers should surface as bad input.
var ErrInvalid = errors.New("invalid entry")

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service handles cash entry business logic. Day boundaries are computed in
// the office timezone.
type Service struct {
	repo         *Repository
	baseCurrency string
	location     *time.Location
	log          zerolog.Logger
}

// NewService creates a new cash entry service.
func NewService(repo *Repository, baseCurrency string, location *time.Location, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		baseCurrency: baseCurrency,
		location:     location,
		log:          log.With().Str("service", "entries").Logger(),
	}
}

// Create validates and stores a new entry. The currency accepts any spelling
// the alias table knows and is stored canonically.
func (s *Service) Create(in NewEntry) (*Entry, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}

	direction := strings.ToUpper(strings.TrimSpace(in.FlowDirection))
	if direction != DirectionInflow && direction != DirectionOutflow {
		return nil, fmt.Errorf("%w: flow_direction must be %s or %s", ErrInvalid, DirectionInflow, DirectionOutflow)
	}

	code, ok := currencies.Normalize(in.CurrencyCode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalid, in.CurrencyCode)
	}

	clientName := strings.TrimSpace(in.ClientName)
	if clientName == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalid)
	}

	var note *string
	if in.Note != nil {
		if trimmed := strings.TrimSpace(*in.Note); trimmed != "" {
			note = &trimmed
		}
	}

	entry, err := s.repo.Insert(&Entry{
		Amount:              in.Amount,
		CurrencyCode:        code,
		FlowDirection:       direction,
		ClientName:          clientName,
		Note:                note,
		CreatedByTelegramID: in.CreatedByTelegramID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("id", entry.ID).
		Str("currency", code).
		Str("direction", direction).
		Str("client", clientName).
		Msg("Entry created")
	return entry, nil
}

// Get retrieves an entry by ID, nil when absent.
func (s *Service) Get(id int64) (*Entry, error) {
	return s.repo.GetByID(id)
}

// Delete hard-deletes an entry, reporting whether it existed.
func (s *Service) Delete(id int64) (bool, error) {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info().Int64("id", id).Msg("Entry deleted")
	}
	return deleted, nil
}

// List returns one page of entries, newest first. Limits are clamped to a
// sane page size.
func (s *Service) List(f Filter) (*Page, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.CurrencyCode != "" {
		code, ok := currencies.Normalize(f.CurrencyCode)
		if !ok {
			return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalid, f.CurrencyCode)
		}
		f.CurrencyCode = code
	}
	return s.repo.List(f)
}

// ParseDay parses a YYYY-MM-DD string as a date in the office timezone.
func (s *Service) ParseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", value, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrInvalid, value)
	}
	return day, nil
}

// DailyNetByCurrency computes inflow minus outflow per currency for the
// office-local day containing date.
func (s *Service) DailyNetByCurrency(date time.Time) ([]CurrencyAmount, error) {
	start, end := s.dayBounds(date)
	return s.repo.NetByCurrency(&start, &end)
}

// Balances computes the all-time inflow minus outflow per currency.
func (s *Service) Balances() ([]CurrencyAmount, error) {
	return s.repo.NetByCurrency(nil, nil)
}

// ClientDebts computes outflow minus inflow per client and currency.
func (s *Service) ClientDebts() ([]ClientDebt, error) {
	return s.repo.ClientDebts()
}

// CashTotal returns all balances with the base currency figure called out.
func (s *Service) CashTotal() (*CashTotal, error) {
	balances, err := s.Balances()
	if err != nil {
		return nil, err
	}

	total := &CashTotal{
		Balances:         balances,
		BaseCurrencyCode: s.baseCurrency,
	}
	for _, b := range balances {
		if b.CurrencyCode == s.baseCurrency {
			total.BaseTotal = b.Amount
			break
		}
	}
	return total, nil
}

// ForDay retrieves all entries of the office-local day in insertion order.
func (s *Service) ForDay(date time.Time) ([]Entry, error) {
	start, end := s.dayBounds(date)
	return s.repo.ForRange(start, end)
}

func (s *Service) dayBounds(date time.Time) (time.Time, time.Time) {
	d := date.In(s.location)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}
