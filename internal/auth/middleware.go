package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sha1n/docsnip/internal/config"
)

// HealthPath is always reachable without credentials.
const HealthPath = "/health"

// APIKeyHeader carries the key for apikey auth. A bearer token is accepted too.
const APIKeyHeader = "X-API-Key"

// verifier reports whether a request carries valid credentials.
type verifier func(r *http.Request) bool

// NewMiddleware creates the authentication middleware for the snippet server.
// Requests to HealthPath and any extra public paths bypass authentication.
func NewMiddleware(settings config.AuthSettings, publicPaths ...string) (func(http.Handler) http.Handler, error) {
	var (
		verify    verifier
		challenge string
	)

	switch settings.Type {
	case config.AuthTypeNone, "":
		return func(next http.Handler) http.Handler { return next }, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, fmt.Errorf("basic auth requires non-empty username and password")
		}
		verify = basicVerifier(settings.Basic)
		challenge = `Basic realm="docsnip"`
	case config.AuthTypeAPIKey:
		if len(settings.APIKeys) == 0 {
			return nil, fmt.Errorf("apikey auth requires at least one API key")
		}
		verify = apiKeyVerifier(settings.APIKeys)
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}

	public := map[string]bool{HealthPath: true}
	for _, p := range publicPaths {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] || verify(r) {
				next.ServeHTTP(w, r)
				return
			}
			slog.Debug("Rejected unauthenticated request", "path", r.URL.Path, "remote", r.RemoteAddr)
			if challenge != "" {
				w.Header().Set("WWW-Authenticate", challenge)
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}, nil
}

func basicVerifier(creds config.BasicAuthSettings) verifier {
	return func(r *http.Request) bool {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(creds.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(creds.Password)) == 1
		return ok && userMatch && passMatch
	}
}

func apiKeyVerifier(keys []string) verifier {
	return func(r *http.Request) bool {
		key := requestKey(r)
		if key == "" {
			return false
		}
		valid := false
		// Compare against every key so timing does not reveal which one matched.
		for _, k := range keys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
				valid = true
			}
		}
		return valid
	}
}

// requestKey returns the API key from the X-API-Key header or a bearer token.
func requestKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
