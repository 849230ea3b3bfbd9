package clients

import "time"

// Client is a counterparty of the exchange office. Names come from chat
// input, so lookups are case-insensitive.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
