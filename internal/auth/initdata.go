package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// VerifyInitData checks the signature of Telegram WebApp init data and
// returns the user ID it carries.
//
// The scheme is fixed by Telegram: the secret key is HMAC-SHA256 of the
// bot token with the literal key "WebAppData", and the hash field is
// HMAC-SHA256 of the remaining fields sorted and joined as "key=<value>"
// lines.
func VerifyInitData(initData, botToken string) (int64, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("malformed init data: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("init data has no hash")
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return 0, fmt.Errorf("init data signature mismatch")
	}

	return userIDFromValues(values)
}

func userIDFromValues(values url.Values) (int64, error) {
	if userJSON := values.Get("user"); userJSON != "" {
		var user struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(userJSON), &user); err == nil && user.ID != 0 {
			return user.ID, nil
		}
	}

	if raw := values.Get("user_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id, nil
		}
	}

	return 0, fmt.Errorf("init data has no user ID")
}
