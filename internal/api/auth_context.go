package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// userIDKey is the context key for the authenticated user ID.
const userIDKey ctxKey = "userID"

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// optionalUserID returns the caller's id or "" for anonymous requests.
func optionalUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware validates Bearer tokens and stores the user ID in context.
// Requests without a valid token continue anonymously; handlers call
// GetUserID when they need a user.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.VerifyToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), user.ID)))
		})
	}
}

// requireAdmin checks the caller's email against the configured admins.
func (s *Server) requireAdmin(ctx context.Context) (string, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return "", err
	}
	user, err := s.services.Auth.CurrentUser(ctx, userID)
	if err != nil {
		return "", huma.Error401Unauthorized("User not found")
	}
	if !slices.Contains(s.opts.AdminEmails, strings.ToLower(user.Email)) {
		return "", domainerrors.Forbidden("Admin access required")
	}
	return userID, nil
}

// AuthenticatedInput is the input for operations that only need a caller.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token"`
}
