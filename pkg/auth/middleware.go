package auth

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/http/response"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// User is the authenticated identity attached to the request context.
type User struct {
	ID            string
	PrivyID       string
	Email         string
	WalletAddress string
}

// TokenVerifier is the slice of PrivyClient the middleware needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Claims, error)
	GetProfile(ctx context.Context, did string) (*Profile, error)
}

// Middleware authenticates requests with Privy bearer tokens and keeps the
// local user row in sync with the Privy profile.
type Middleware struct {
	verifier TokenVerifier
	queries  *db.Queries
	logger   *logger.Logger
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(verifier TokenVerifier, queries *db.Queries, log *logger.Logger) *Middleware {
	return &Middleware{verifier: verifier, queries: queries, logger: log}
}

// Authenticate verifies the bearer token, syncs the user row, and attaches
// the user to the request context. Requests without a valid token get 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticate(r)
		if err != nil {
			m.logger.Debug("authentication rejected", "path", r.URL.Path, "error", err)
			response.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (m *Middleware) authenticate(r *http.Request) (*User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, errors.NewUnauthorizedError("missing authorization header", nil)
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, errors.NewUnauthorizedError("authorization header must be a bearer token", nil)
	}

	claims, err := m.verifier.VerifyToken(r.Context(), token)
	if err != nil {
		return nil, errors.NewUnauthorizedError("invalid access token", map[string]interface{}{
			"detail": err.Error(),
		})
	}

	return m.syncUser(r.Context(), claims.Subject)
}

// syncUser upserts the local row for the Privy DID. When the profile fetch
// fails but the user already exists locally, the stale row is used so a
// Privy API blip does not lock users out.
func (m *Middleware) syncUser(ctx context.Context, did string) (*User, error) {
	profile, err := m.verifier.GetProfile(ctx, did)
	if err != nil {
		m.logger.Warn("privy profile fetch failed", "did", did, "error", err)
		existing, dbErr := m.queries.GetUserByPrivyID(ctx, did)
		if dbErr != nil {
			return nil, errors.NewUnauthorizedError("failed to resolve user profile", nil)
		}
		return toAuthUser(existing), nil
	}

	row, err := m.queries.UpsertUser(ctx, db.UpsertUserParams{
		ID:             uuid.NewString(),
		PrivyID:        did,
		Email:          nullable(profile.Email),
		WalletAddress:  nullable(profile.WalletAddress),
		LinkedAccounts: nullable(string(profile.LinkedAccounts)),
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to sync user", err, nil)
	}
	return toAuthUser(row), nil
}

func toAuthUser(row *db.User) *User {
	return &User{
		ID:            row.ID,
		PrivyID:       row.PrivyID,
		Email:         row.Email.String,
		WalletAddress: row.WalletAddress.String,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// WithUser attaches a user to a context.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or an unauthorized error
// when the request was not authenticated.
func UserFromContext(ctx context.Context) (*User, error) {
	user, ok := ctx.Value(userContextKey).(*User)
	if !ok || user == nil {
		return nil, errors.NewUnauthorizedError("authentication required", nil)
	}
	return user, nil
}
