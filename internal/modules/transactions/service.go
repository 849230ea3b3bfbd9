package transactions

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kassaflow/kassa/internal/modules/clients"
	"github.com/kassaflow/kassa/internal/modules/currencies"
)

// ErrInvalid marks validation failures callers should surface as bad input.
var ErrInvalid = errors.New("invalid transaction")

// ErrRateRequired is returned when a deal omits the rate and the pair has no
// rate history to fall back on.
var ErrRateRequired = fmt.Errorf("%w: rate is required for first-time transaction with this currency pair", ErrInvalid)

// CurrencyStore resolves canonical currency codes to persisted rows.
type CurrencyStore interface {
	GetByCode(code string) (*currencies.Currency, error)
}

// ClientStore lazily creates clients referenced by name.
type ClientStore interface {
	GetOrCreateByName(name string) (*clients.Client, error)
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service handles exchange transaction business logic.
type Service struct {
	repo          *Repository
	currencyStore CurrencyStore
	clientStore   ClientStore
	baseCurrency  string
	log           zerolog.Logger
}

// NewService creates a new transaction service.
func NewService(repo *Repository, currencyStore CurrencyStore, clientStore ClientStore, baseCurrency string, log zerolog.Logger) *Service {
	return &Service{
		repo:          repo,
		currencyStore: currencyStore,
		clientStore:   clientStore,
		baseCurrency:  baseCurrency,
		log:           log.With().Str("service", "transactions").Logger(),
	}
}

// CreateManual stores an exchange with both legs given explicitly. The
// outgoing amount is derived as to_amount * rate.
func (s *Service) CreateManual(in NewTransaction) (*Transaction, error) {
	fromCode, ok := currencies.Normalize(in.FromCurrency)
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalid, in.FromCurrency)
	}
	toCode, ok := currencies.Normalize(in.ToCurrency)
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalid, in.ToCurrency)
	}
	if fromCode == toCode {
		return nil, fmt.Errorf("%w: currencies must differ", ErrInvalid)
	}
	if !in.ToAmount.IsPositive() {
		return nil, fmt.Errorf("%w: to_amount must be positive", ErrInvalid)
	}
	if !in.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate must be positive", ErrInvalid)
	}

	fromAmount := in.ToAmount.Mul(in.Rate)
	return s.create(fromCode, toCode, fromAmount, in.ToAmount, in.Rate, in.ClientName)
}

// ConfirmDeal stores a buy or sell against the base currency. When the rate
// is omitted, the most recent rate recorded for the same direction is used.
func (s *Service) ConfirmDeal(d Deal) (*Transaction, error) {
	kind := strings.ToUpper(strings.TrimSpace(d.Kind))
	if kind != DealBuy && kind != DealSell {
		return nil, fmt.Errorf("%w: kind must be %s or %s", ErrInvalid, DealBuy, DealSell)
	}

	code, ok := currencies.Normalize(d.CurrencyCode)
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency %q", ErrInvalid, d.CurrencyCode)
	}
	if code == s.baseCurrency {
		return nil, fmt.Errorf("%w: deal currency must differ from base %s", ErrInvalid, s.baseCurrency)
	}
	if !d.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if d.Rate != nil && !d.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: rate must be positive", ErrInvalid)
	}

	var fromCode, toCode string
	if kind == DealBuy {
		fromCode, toCode = s.baseCurrency, code
	} else {
		fromCode, toCode = code, s.baseCurrency
	}

	rate := d.Rate
	if rate == nil {
		from, err := s.currency(fromCode)
		if err != nil {
			return nil, err
		}
		to, err := s.currency(toCode)
		if err != nil {
			return nil, err
		}
		latest, err := s.repo.LatestRate(from.ID, to.ID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, ErrRateRequired
		}
		rate = latest
	}

	var fromAmount, toAmount decimal.Decimal
	if kind == DealBuy {
		fromAmount = d.Amount.Mul(*rate)
		toAmount = d.Amount
	} else {
		fromAmount = d.Amount
		toAmount = d.Amount.Mul(*rate)
	}

	tx, err := s.create(fromCode, toCode, fromAmount, toAmount, *rate, d.ClientName)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("kind", kind).
		Str("currency", code).
		Str("rate", rate.String()).
		Msg("Deal confirmed")
	return tx, nil
}

// ListRecent returns the newest transactions first, limit clamped to a sane
// page size.
func (s *Service) ListRecent(limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListRecent(limit)
}

// ListOrdered returns the chronological history strictly before until, the
// shape the profit engine consumes.
func (s *Service) ListOrdered(until *time.Time) ([]Transaction, error) {
	return s.repo.ListOrdered(until)
}

// CountAndTurnover returns the transaction count and base-leg turnover for
// [from, to).
func (s *Service) CountAndTurnover(from, to time.Time) (int, decimal.Decimal, error) {
	return s.repo.CountAndTurnover(from, to, s.baseCurrency)
}

func (s *Service) create(fromCode, toCode string, fromAmount, toAmount, rate decimal.Decimal, clientName string) (*Transaction, error) {
	from, err := s.currency(fromCode)
	if err != nil {
		return nil, err
	}
	to, err := s.currency(toCode)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		FromCurrencyID:   from.ID,
		FromCurrencyCode: from.Code,
		ToCurrencyID:     to.ID,
		ToCurrencyCode:   to.Code,
		FromAmount:       fromAmount,
		ToAmount:         toAmount,
		Rate:             rate,
	}

	if name := strings.TrimSpace(clientName); name != "" {
		client, err := s.clientStore.GetOrCreateByName(name)
		if err != nil {
			return nil, err
		}
		tx.ClientID = &client.ID
		tx.ClientName = &client.Name
	}

	created, err := s.repo.Insert(tx)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("id", created.ID).
		Str("from", fromCode).
		Str("to", toCode).
		Msg("Transaction created")
	return created, nil
}

func (s *Service) currency(code string) (*currencies.Currency, error) {
	c, err := s.currencyStore.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("currency %s is not seeded", code)
	}
	return c, nil
}
