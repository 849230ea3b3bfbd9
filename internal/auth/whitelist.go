// Package auth guards the HTTP API and the bot with the operator
// whitelist and Telegram WebApp init data verification.
package auth

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAllowedIDs parses the comma-separated Telegram ID list from
// configuration. An empty string means no restriction.
func ParseAllowedIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Whitelist is the set of Telegram user IDs allowed to use the service.
// An empty whitelist allows everyone.
type Whitelist struct {
	ids   map[int64]bool
	owner int64
}

// NewWhitelist creates a whitelist from the parsed ID list.
func NewWhitelist(ids []int64) *Whitelist {
	w := &Whitelist{ids: make(map[int64]bool, len(ids))}
	for _, id := range ids {
		w.ids[id] = true
		if w.owner == 0 || id < w.owner {
			w.owner = id
		}
	}
	return w
}

// Allowed reports whether the user may use the service.
func (w *Whitelist) Allowed(id int64) bool {
	if len(w.ids) == 0 {
		return true
	}
	return w.ids[id]
}

// Empty reports whether no IDs are configured.
func (w *Whitelist) Empty() bool { return len(w.ids) == 0 }

// OwnerID returns the lowest whitelisted ID, the account that receives
// backups. Zero when the whitelist is empty.
func (w *Whitelist) OwnerID() int64 { return w.owner }
