package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kassaflow/kassa/internal/modules/currencies"
	"github.com/kassaflow/kassa/internal/modules/entries"
)

// responseAliases fixes spellings models keep producing. These are applied
// before the shared alias table; here "som" means the Uzbek som because
// models echo the base currency's local name, while in operator messages
// it is the Kyrgyz one.
var responseAliases = map[string]string{
	"DOLLAR": "USD",
	"USDT":   "USD",
	"SOM":    "UZS",
	"SUM":    "UZS",
	"SO'M":   "UZS",
	"RUBL":   "RUB",
	"РУБ":    "RUB",
}

// Parser extracts a cash entry from one operator message.
type Parser struct {
	provider Provider
	log      zerolog.Logger
}

// NewParser creates a new message parser.
func NewParser(provider Provider, log zerolog.Logger) *Parser {
	return &Parser{
		provider: provider,
		log:      log.With().Str("component", "ai_parser").Logger(),
	}
}

// Parse asks the model for a structured entry and validates the result.
func (p *Parser) Parse(ctx context.Context, message string) (*ParsedEntry, error) {
	raw, err := p.provider.Complete(ctx, parsePrompt(), message)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.provider.Name(), err)
	}

	jsonText, err := extractJSONObject(raw)
	if err != nil {
		p.log.Debug().Str("response", truncate(raw, 200)).Msg("Model response had no JSON object")
		return nil, err
	}

	var wire wireEntry
	if err := json.Unmarshal([]byte(jsonText), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	return validateEntry(&wire)
}

func parsePrompt() string {
	return fmt.Sprintf(`You convert one message from a currency exchange operator into JSON.

The message records a cash movement. Reply with a single JSON object and nothing else:
{"amount": <number>, "currency_code": "<code>", "flow_direction": "INFLOW" or "OUTFLOW", "client_name": "<name or empty>", "note": "<extra detail or empty>"}

Rules:
- currency_code is one of: %s.
- INFLOW means cash came into the office, OUTFLOW means cash left it.
- "oldim", "kupil", "купил", "buy" mean INFLOW; "sotdim", "prodal", "продал", "sell" mean OUTFLOW.
- client_name is the person named in the message, or "" when nobody is named.
- Put an exchange rate or any other detail into note.
- When no direction is named, use INFLOW.`, strings.Join(currencies.Supported(), ", "))
}

// extractJSONObject pulls the JSON object out of a model response that may
// wrap it in code fences or prose.
func extractJSONObject(s string) (string, error) {
	if i := strings.Index(s, "```"); i >= 0 {
		rest := strings.TrimPrefix(s[i+3:], "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		} else {
			s = rest
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in model response")
	}
	return s[start : end+1], nil
}

func validateEntry(w *wireEntry) (*ParsedEntry, error) {
	if !w.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", w.Amount)
	}

	code := strings.ToUpper(strings.TrimSpace(w.CurrencyCode))
	if alias, ok := responseAliases[code]; ok {
		code = alias
	}
	normalized, ok := currencies.Normalize(code)
	if !ok {
		return nil, fmt.Errorf("unsupported currency %q", w.CurrencyCode)
	}

	direction := strings.ToUpper(strings.TrimSpace(w.FlowDirection))
	if direction != entries.DirectionInflow && direction != entries.DirectionOutflow {
		return nil, fmt.Errorf("flow direction must be INFLOW or OUTFLOW, got %q", w.FlowDirection)
	}

	entry := &ParsedEntry{
		Amount:        w.Amount,
		CurrencyCode:  normalized,
		FlowDirection: direction,
		ClientName:    strings.TrimSpace(w.ClientName),
	}
	if note := strings.TrimSpace(w.Note); note != "" {
		entry.Note = &note
	}
	return entry, nil
}
