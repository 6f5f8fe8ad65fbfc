package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenIDKey contextKey = "token_id"

// ExtractTokenFromRequest pulls the bearer token out of the
// Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Expect "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Middleware guards owner-only routes: the token must verify and still
// be registered in the cache (revoked tokens fail even before expiry).
func Middleware(issuer *TokenIssuer, cache *RedisTokenCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, ok := ExtractTokenFromRequest(r)
			if !ok {
				http.Error(w, "missing or malformed Authorization header", http.StatusUnauthorized)
				return
			}

			jti, err := issuer.Verify(rawToken)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if cache != nil {
				active, err := cache.IsActive(r.Context(), jti)
				if err != nil || !active {
					http.Error(w, "token revoked or expired", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), tokenIDKey, jti)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenID extracts the verified token's JTI in handlers.
func TokenID(ctx context.Context) string {
	if jti, ok := ctx.Value(tokenIDKey).(string); ok {
		return jti
	}
	return ""
}
