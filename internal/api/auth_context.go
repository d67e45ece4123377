package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/warroomops/warroom-server/internal/auth"
	domainerrors "github.com/warroomops/warroom-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userIDKey is the context key for the verified user ID.
const userIDKey ctxKey = "userID"

// GetUserID returns the verified user ID from context.
// Returns an UNAUTHORIZED error when the request carried no valid token.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", domainerrors.Unauthorized("a verified identity token is required")
	}
	return userID, nil
}

// setUserID stores the user ID in context.
func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware verifies Bearer tokens from the identity provider and stores
// the subject in context. Requests without a valid token continue anonymously
// and are rejected by handlers that call GetUserID.
func authMiddleware(tokens *auth.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				logger.Debug("identity token rejected", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), claims.UserID())))
		})
	}
}
