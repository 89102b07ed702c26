package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"onlyhate/internal/auth"
	"onlyhate/internal/logging"
)

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(raw string) (auth.User, error)
}

type adminKey struct{}

// AdminFrom returns the administrator attached by RequireAdmin.
func AdminFrom(ctx context.Context) (auth.User, bool) {
	user, ok := ctx.Value(adminKey{}).(auth.User)
	return user, ok
}

// RequireAdmin rejects requests without a valid bearer token.
func RequireAdmin(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			user, err := tokens.Parse(raw)
			if err != nil {
				logging.FromContext(r.Context()).Debug().Err(err).Msg("rejected bearer token")
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), adminKey{}, user)
			ctx = logging.WithAdmin(ctx, user.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="onlyhate"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
