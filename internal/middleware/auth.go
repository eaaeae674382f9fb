package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

const triggerSecretHeader = "X-Trigger-Secret"

// TriggerAuth guards the trigger surface with a shared secret. Callers are
// schedulers and operators, not end users. An empty configured secret disables
// the check for local development.
func TriggerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				provided := r.Header.Get(triggerSecretHeader)
				if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
