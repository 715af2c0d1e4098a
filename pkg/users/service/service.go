package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// UserService implements user and delegation operations over the store.
type UserService struct {
	queries *db.Queries
	logger  *logger.Logger
}

// NewUserService creates the service.
func NewUserService(queries *db.Queries, log *logger.Logger) *UserService {
	return &UserService{queries: queries, logger: log}
}

// SyncResult is a user together with their stored delegations.
type SyncResult struct {
	User        *db.User
	Delegations []*db.Delegation
}

// Sync returns the user row for a Privy DID along with their delegations.
// The row itself is kept current by the auth middleware on every request.
func (s *UserService) Sync(ctx context.Context, privyID string) (*SyncResult, error) {
	user, err := s.queries.GetUserByPrivyID(ctx, privyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user not found", map[string]interface{}{
				"privyId": privyID,
			})
		}
		return nil, errors.NewInternalError("failed to load user", err, nil)
	}

	delegations, err := s.queries.ListDelegationsByUser(ctx, user.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load delegations", err, nil)
	}
	return &SyncResult{User: user, Delegations: delegations}, nil
}

// GetByPrivyID returns the user row for a Privy DID.
func (s *UserService) GetByPrivyID(ctx context.Context, privyID string) (*db.User, error) {
	user, err := s.queries.GetUserByPrivyID(ctx, privyID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user not found", map[string]interface{}{
				"privyId": privyID,
			})
		}
		return nil, errors.NewInternalError("failed to load user", err, nil)
	}
	return user, nil
}

// StoreDelegationParams is a validated EIP-7702 delegation payload.
type StoreDelegationParams struct {
	UserID          string
	ChainID         int64
	Delegator       string
	Delegatee       string
	Nonce           string
	Authority       string
	Signature       string
	TransactionHash string
}

// StoreDelegation persists a signed delegation. Duplicate (user, chain,
// nonce) combinations are rejected.
func (s *UserService) StoreDelegation(ctx context.Context, params StoreDelegationParams) (*db.Delegation, error) {
	delegation, err := s.queries.CreateDelegation(ctx, db.CreateDelegationParams{
		ID:              uuid.NewString(),
		UserID:          params.UserID,
		ChainID:         params.ChainID,
		Delegator:       params.Delegator,
		Delegatee:       params.Delegatee,
		Nonce:           params.Nonce,
		Authority:       nullable(params.Authority),
		Signature:       params.Signature,
		Status:          "active",
		TransactionHash: nullable(params.TransactionHash),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.NewConflictError("delegation already stored for this nonce", map[string]interface{}{
				"chainId": params.ChainID,
				"nonce":   params.Nonce,
			})
		}
		return nil, errors.NewInternalError("failed to store delegation", err, nil)
	}
	s.logger.Info("stored delegation", "user_id", params.UserID, "chain_id", params.ChainID, "delegatee", params.Delegatee)
	return delegation, nil
}

// ListDelegationsByUser returns all delegations for a user id.
func (s *UserService) ListDelegationsByUser(ctx context.Context, userID string) ([]*db.Delegation, error) {
	delegations, err := s.queries.ListDelegationsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list delegations", err, nil)
	}
	return delegations, nil
}

// ListDelegationsByDelegator returns delegations signed by an address,
// optionally filtered to one chain (chainID 0 means all).
func (s *UserService) ListDelegationsByDelegator(ctx context.Context, delegator string, chainID int64) ([]*db.Delegation, error) {
	delegations, err := s.queries.ListDelegationsByDelegator(ctx, delegator, chainID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list delegations", err, nil)
	}
	return delegations, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	// go-sqlite3 reports constraint violations in the error text; matching
	// on it avoids importing the driver here.
	if err == nil {
		return false
	}
	msg := pkgerrors.Cause(err).Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
