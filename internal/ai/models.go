// Package ai turns free-form operator messages into structured bookkeeping
// actions, via a configured model provider or fixed fallback rules.
package ai

import (
	"github.com/shopspring/decimal"
)

// Chat actions a model may request.
const (
	ActionText        = "text"
	ActionCreateEntry = "create_entry"
	ActionDeleteEntry = "delete_entry"
)

// ParsedEntry is a cash entry extracted from a message. ClientName may be
// empty; the conversation layer asks for it before saving.
type ParsedEntry struct {
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	FlowDirection string          `json:"flow_direction"`
	ClientName    string          `json:"client_name"`
	Note          *string         `json:"note,omitempty"`
}

// Action is a validated assistant response. Unknown or malformed model
// output degrades to a plain text action rather than failing the chat.
type Action struct {
	Action  string       `json:"action"`
	Text    string       `json:"text,omitempty"`
	Entry   *ParsedEntry `json:"entry,omitempty"`
	EntryID int64        `json:"entry_id,omitempty"`
}

type wireEntry struct {
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currency_code"`
	FlowDirection string          `json:"flow_direction"`
	ClientName    string          `json:"client_name"`
	Note          string          `json:"note"`
}

type wireAction struct {
	Action  string     `json:"action"`
	Text    string     `json:"text"`
	Entry   *wireEntry `json:"entry"`
	EntryID int64      `json:"entry_id"`
}
