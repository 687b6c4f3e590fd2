package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator defines the interface for validating bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims expected from the token validator.
type TokenClaims struct {
	MemberID string
	OrgID    string
	Role     string
}

type contextKeyMemberID struct{}
type contextKeyOrgID struct{}
type contextKeyRole struct{}

// GetMemberID retrieves the authenticated member ID from the context.
func GetMemberID(ctx context.Context) string {
	memberID, ok := ctx.Value(contextKeyMemberID{}).(string)
	if !ok {
		return ""
	}
	return memberID
}

// GetOrgID retrieves the authenticated organization ID from the context.
func GetOrgID(ctx context.Context) string {
	orgID, ok := ctx.Value(contextKeyOrgID{}).(string)
	if !ok {
		return ""
	}
	return orgID
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(contextKeyRole{}).(string)
	if !ok {
		return ""
	}
	return role
}

// RequireAuth validates the Authorization bearer token and injects the
// authenticated identity into the request context. Requests without a valid
// token receive 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyMemberID{}, claims.MemberID)
			ctx = context.WithValue(ctx, contextKeyOrgID{}, claims.OrgID)
			ctx = context.WithValue(ctx, contextKeyRole{}, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin restricts an endpoint to tokens carrying the admin role.
// Must be mounted after RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetRole(r.Context()) != "admin" {
				logger.WarnContext(r.Context(), "forbidden - admin role required",
					"member_id", GetMemberID(r.Context()),
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`))
}
