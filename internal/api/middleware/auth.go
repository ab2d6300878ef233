package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/courtesyinspect/courtesyinspect/internal/auth"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

type contextKey string

const callerKey contextKey = "caller"

// GetCaller returns the authenticated caller stored by Authenticator.
func GetCaller(ctx context.Context) (models.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(models.Caller)
	return caller, ok
}

// WithCaller stores a caller in the context. Exported for tests.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// Authenticator verifies bearer access tokens and stores the resulting
// Caller in the request context. Routes mounted behind it always see an
// authenticated identity.
type Authenticator struct {
	tokens *auth.TokenService
}

// NewAuthenticator creates the auth middleware.
func NewAuthenticator(tokens *auth.TokenService) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Handler rejects requests without a valid access token.
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := a.tokens.VerifyAccess(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		caller := models.Caller{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
			ShopID: claims.ShopID,
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="courtesyinspect"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
		"code":    "unauthenticated",
	})
}
