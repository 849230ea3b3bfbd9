package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

const initDataHeader = "X-Telegram-Init-Data"

// RequireAPIAuth verifies Telegram WebApp init data on API requests. With
// enforcement off and an empty whitelist every request passes, which
// keeps local development simple.
func RequireAPIAuth(botToken string, whitelist *Whitelist, enforce bool, log zerolog.Logger) func(http.Handler) http.Handler {
	log = log.With().Str("middleware", "auth").Logger()
	enforced := enforce || !whitelist.Empty()

	return func(next http.Handler) http.Handler {
		if !enforced {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initData := initDataFromRequest(r)
			if initData == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing init data")
				return
			}

			userID, err := VerifyInitData(initData, botToken)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected API request")
				writeAuthError(w, http.StatusUnauthorized, "invalid init data")
				return
			}
			if !whitelist.Allowed(userID) {
				log.Warn().Int64("user_id", userID).Str("path", r.URL.Path).Msg("User not whitelisted")
				writeAuthError(w, http.StatusForbidden, "not allowed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// initDataFromRequest reads init data from the Authorization header in
// the "tma <data>" form Telegram web apps use, or from the
// X-Telegram-Init-Data header.
func initDataFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "tma ") {
		return strings.TrimPrefix(authz, "tma ")
	}
	return r.Header.Get(initDataHeader)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
