// internal/auth/middleware.go
// JWT auth middleware. Session issuance is owned by the auth service; this
// middleware only validates access tokens and puts the user ID in context.

package auth

import (
    "context"
    "net/http"
    "strings"

    "github.com/evinjohnn/tinder-clone-sub000/internal/common/utils"
)

type contextKey string

const userIDKey contextKey = "userID"

// Middleware provides authentication middleware
type Middleware struct {
    jwtSecret string
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtSecret string) *Middleware {
    return &Middleware{jwtSecret: jwtSecret}
}

// Authenticate verifies the JWT token and adds the user ID to the request
// context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        token := m.extractToken(r)
        if token == "" {
            utils.RespondWithError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
            return
        }

        claims, err := utils.ValidateJWT(token, m.jwtSecret)
        if err != nil {
            utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
            return
        }

        if claims.Type != "access" {
            utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token type")
            return
        }

        ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

// extractToken extracts the JWT token from the Authorization header
// Supports "Bearer <token>" format
func (m *Middleware) extractToken(r *http.Request) string {
    authHeader := r.Header.Get("Authorization")
    if authHeader == "" {
        return ""
    }

    parts := strings.Split(authHeader, " ")
    if len(parts) != 2 || parts[0] != "Bearer" {
        return ""
    }

    return parts[1]
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
    userID, ok := ctx.Value(userIDKey).(int64)
    return userID, ok
}
