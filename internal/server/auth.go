package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var userIDKey = contextKey{}

// OptionalAuth resolves the requester's user ID from a Bearer JWT when one
// is present and valid, and stores it on the request context. Requests
// without a usable token proceed as user 0; downstream services apply their
// own anonymous-user policy instead of the middleware rejecting anything.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := parseBearer(r.Header.Get("Authorization"), secret); userID != 0 {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user ID, or 0 when the
// request carried no valid token.
func UserIDFromContext(ctx context.Context) uint64 {
	if id, ok := ctx.Value(userIDKey).(uint64); ok {
		return id
	}
	return 0
}

func parseBearer(header, secret string) uint64 {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return 0
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, prefix),
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		},
	)
	if err != nil || !token.Valid {
		return 0
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0
	}
	return userID
}
