package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kassaflow/kassa/internal/modules/entries"
)

const maxContextEntries = 20

const chatInstructions = `You are the assistant of a small cash exchange office. The operator records
cash movements (entries) and asks you about the books.

Reply with a single JSON object and nothing else. One of:
{"action": "text", "text": "<your answer>"}
{"action": "create_entry", "text": "<short confirmation>", "entry": {"amount": <number>, "currency_code": "<code>", "flow_direction": "INFLOW" or "OUTFLOW", "client_name": "<name or empty>", "note": "<detail or empty>"}}
{"action": "delete_entry", "text": "<short confirmation>", "entry_id": <id from today's entries>}

Use create_entry only when the operator clearly records a cash movement,
delete_entry only when they ask to remove an entry listed below. For
everything else answer with a text action in the operator's language.`

// BalanceSource supplies current balances for the chat context.
type BalanceSource interface {
	CashTotal() (*entries.CashTotal, error)
}

// EntrySource supplies today's entries for the chat context.
type EntrySource interface {
	ForDay(date time.Time) ([]entries.Entry, error)
}

// Chat answers assistant messages with validated actions.
type Chat struct {
	provider Provider
	balances BalanceSource
	entries  EntrySource
	location *time.Location
	log      zerolog.Logger
}

// NewChat creates a new assistant chat.
func NewChat(provider Provider, balances BalanceSource, entrySource EntrySource, location *time.Location, log zerolog.Logger) *Chat {
	return &Chat{
		provider: provider,
		balances: balances,
		entries:  entrySource,
		location: location,
		log:      log.With().Str("component", "ai_chat").Logger(),
	}
}

// Respond sends the message with the current books as context and decodes
// the model's action.
func (c *Chat) Respond(ctx context.Context, message string) (*Action, error) {
	raw, err := c.provider.Complete(ctx, c.systemPrompt(), message)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", c.provider.Name(), err)
	}
	return decodeAction(raw)
}

func (c *Chat) systemPrompt() string {
	var b strings.Builder
	b.WriteString(chatInstructions)

	cash, err := c.balances.CashTotal()
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to load balances for chat context")
	} else if cash != nil {
		b.WriteString("\n\nCurrent cash balances:\n")
		for _, balance := range cash.Balances {
			fmt.Fprintf(&b, "  %s: %s\n", balance.CurrencyCode, balance.Amount)
		}
	}

	today, err := c.entries.ForDay(time.Now().In(c.location))
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to load today's entries for chat context")
	} else if len(today) > 0 {
		if len(today) > maxContextEntries {
			today = today[len(today)-maxContextEntries:]
		}
		b.WriteString("\nToday's entries (newest last):\n")
		for _, e := range today {
			client := e.ClientName
			if client == "" {
				client = "-"
			}
			fmt.Fprintf(&b, "  #%d %s %s %s %s\n", e.ID, e.FlowDirection, e.Amount, e.CurrencyCode, client)
		}
	}

	return b.String()
}

// decodeAction validates a model response. Responses that are not one of
// the known actions degrade to plain text instead of failing.
func decodeAction(raw string) (*Action, error) {
	text := strings.TrimSpace(raw)

	jsonText, err := extractJSONObject(raw)
	if err != nil {
		return &Action{Action: ActionText, Text: text}, nil
	}

	var wire wireAction
	if err := json.Unmarshal([]byte(jsonText), &wire); err != nil {
		return &Action{Action: ActionText, Text: text}, nil
	}

	switch wire.Action {
	case ActionCreateEntry:
		if wire.Entry == nil {
			return nil, fmt.Errorf("create_entry action without an entry")
		}
		parsed, err := validateEntry(wire.Entry)
		if err != nil {
			return nil, fmt.Errorf("create_entry action rejected: %w", err)
		}
		return &Action{Action: ActionCreateEntry, Text: wire.Text, Entry: parsed}, nil

	case ActionDeleteEntry:
		if wire.EntryID <= 0 {
			return nil, fmt.Errorf("delete_entry action without an entry id")
		}
		return &Action{Action: ActionDeleteEntry, Text: wire.Text, EntryID: wire.EntryID}, nil

	case ActionText:
		if wire.Text != "" {
			text = wire.Text
		}
		return &Action{Action: ActionText, Text: text}, nil

	default:
		return &Action{Action: ActionText, Text: text}, nil
	}
}
