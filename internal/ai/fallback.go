package ai

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kassaflow/kassa/internal/modules/currencies"
	"github.com/kassaflow/kassa/internal/modules/entries"
)

var outflowWords = map[string]bool{
	"sotdim": true,
	"otdal":  true,
	"prodal": true,
	"продал": true,
	"sell":   true,
}

var inflowWords = map[string]bool{
	"oldim": true,
	"sotib": true,
	"kupil": true,
	"купил": true,
	"buy":   true,
}

var clientSuffixes = []string{"ga", "qa", "ka"}

const tokenCutset = " ,.;:-"

// FallbackParser extracts an entry from a message with fixed rules. It is
// used for quick entries and whenever no AI provider is configured.
//
// The rules: the first number is the amount and a second number is kept as
// a rate note, any token the alias table knows names the currency, sale
// words flip the direction to OUTFLOW, and the first token is the client
// unless it is a number, a currency or a direction word.
type FallbackParser struct{}

// Parse applies the fixed rules to one message.
func (FallbackParser) Parse(message string) (*ParsedEntry, error) {
	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	entry := &ParsedEntry{FlowDirection: entries.DirectionInflow}
	var numbers []decimal.Decimal

	for _, token := range tokens {
		cleaned := strings.ToLower(strings.Trim(token, tokenCutset))
		if cleaned == "" {
			continue
		}
		if n, err := decimal.NewFromString(cleaned); err == nil {
			numbers = append(numbers, n)
			continue
		}
		if outflowWords[cleaned] {
			entry.FlowDirection = entries.DirectionOutflow
			continue
		}
		if inflowWords[cleaned] {
			continue
		}
		if code, ok := currencies.Normalize(cleaned); ok && entry.CurrencyCode == "" {
			entry.CurrencyCode = code
		}
	}

	if len(numbers) == 0 {
		return nil, fmt.Errorf("no amount in message")
	}
	if !numbers[0].IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", numbers[0])
	}
	entry.Amount = numbers[0]
	if len(numbers) > 1 {
		note := "rate: " + numbers[1].String()
		entry.Note = &note
	}

	if entry.CurrencyCode == "" {
		return nil, fmt.Errorf("no currency in message")
	}

	entry.ClientName = clientName(tokens[0])
	return entry, nil
}

// clientName takes the first token as the client unless it clearly is not
// a name. Uzbek dative suffixes are stripped, so "Azizga" records the
// client "Aziz".
func clientName(token string) string {
	cleaned := strings.Trim(token, tokenCutset)
	lower := strings.ToLower(cleaned)
	if _, err := decimal.NewFromString(lower); err == nil {
		return ""
	}
	if _, ok := currencies.Normalize(lower); ok {
		return ""
	}
	if outflowWords[lower] || inflowWords[lower] {
		return ""
	}

	for _, suffix := range clientSuffixes {
		if strings.HasSuffix(lower, suffix) && len(cleaned) > len(suffix)+1 {
			cleaned = cleaned[:len(cleaned)-len(suffix)]
			break
		}
	}
	return strings.Trim(cleaned, tokenCutset)
}
