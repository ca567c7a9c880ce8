package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/internal/logging"
)

// MinAPIKeyLength is the shortest key accepted when authentication is on.
const MinAPIKeyLength = 16

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled bool
	APIKey  string
}

// requestKey finds the key a client presented. X-API-Key wins over an
// Authorization bearer token. Websocket clients, which cannot always set
// headers, may use the api_key query parameter on the upgrade request.
func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("api_key")
	}
	return ""
}

// AuthMiddleware rejects requests without the configured key. "/" and
// "/health" stay public.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	want := []byte(cfg.APIKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || isPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			key := requestKey(r)
			switch {
			case key == "":
				deny(w, r, "missing API key", "Missing X-API-Key header")
			case subtle.ConstantTimeCompare([]byte(key), want) != 1:
				deny(w, r, "invalid API key", "Invalid API key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, reason, message string) {
	logging.SecurityEvent("unauthorized_request", "auth",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"reason", reason)
	respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func isPublicEndpoint(path string) bool {
	return path == "/" || path == "/health"
}

// ValidateAuthConfig checks that an enabled configuration carries a usable
// key.
func ValidateAuthConfig(cfg AuthConfig) error {
	if !cfg.Enabled {
		return nil
	}
	switch n := len(cfg.APIKey); {
	case n == 0:
		return errors.NewValidation("api_key", "required when authentication is enabled")
	case n < MinAPIKeyLength:
		return errors.NewValidation("api_key", fmt.Sprintf("must be at least %d characters (got %d)", MinAPIKeyLength, n))
	}
	return nil
}

// APIKeyHint tells the operator how to generate a key.
func APIKeyHint() string {
	return "Example: export WRITINGS_API_KEY=$(openssl rand -base64 32)"
}
