package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

func setupUserService(t *testing.T) (*UserService, *db.Queries) {
	t.Helper()
	database, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))
	queries := db.New(database)
	return NewUserService(queries, logger.NewNop()), queries
}

func createUser(t *testing.T, queries *db.Queries, privyID string) *db.User {
	t.Helper()
	user, err := queries.CreateUser(context.Background(), db.CreateUserParams{
		ID:            uuid.NewString(),
		PrivyID:       privyID,
		WalletAddress: sql.NullString{String: "0x1111111111111111111111111111111111111111", Valid: true},
	})
	require.NoError(t, err)
	return user
}

func TestSyncReturnsUserWithDelegations(t *testing.T) {
	svc, queries := setupUserService(t)
	user := createUser(t, queries, "did:privy:alice")

	_, err := svc.StoreDelegation(context.Background(), StoreDelegationParams{
		UserID:    user.ID,
		ChainID:   1,
		Delegator: "0x1111111111111111111111111111111111111111",
		Delegatee: "0x2222222222222222222222222222222222222222",
		Nonce:     "0",
		Signature: "0xsig",
	})
	require.NoError(t, err)

	result, err := svc.Sync(context.Background(), "did:privy:alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	require.Len(t, result.Delegations, 1)
	assert.Equal(t, "active", result.Delegations[0].Status)
}

func TestSyncUnknownUserNotFound(t *testing.T) {
	svc, _ := setupUserService(t)

	_, err := svc.Sync(context.Background(), "did:privy:nobody")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.NotFoundError))
}

func TestStoreDelegationDuplicateNonceConflicts(t *testing.T) {
	svc, queries := setupUserService(t)
	user := createUser(t, queries, "did:privy:alice")

	params := StoreDelegationParams{
		UserID:    user.ID,
		ChainID:   1,
		Delegator: "0x1111111111111111111111111111111111111111",
		Delegatee: "0x2222222222222222222222222222222222222222",
		Nonce:     "7",
		Signature: "0xsig",
	}
	_, err := svc.StoreDelegation(context.Background(), params)
	require.NoError(t, err)

	_, err = svc.StoreDelegation(context.Background(), params)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ConflictError))

	// Same nonce on another chain is a distinct delegation.
	params.ChainID = 137
	_, err = svc.StoreDelegation(context.Background(), params)
	assert.NoError(t, err)
}

func TestListDelegationsByDelegatorChainFilter(t *testing.T) {
	svc, queries := setupUserService(t)
	user := createUser(t, queries, "did:privy:alice")

	for _, chainID := range []int64{1, 137} {
		_, err := svc.StoreDelegation(context.Background(), StoreDelegationParams{
			UserID:    user.ID,
			ChainID:   chainID,
			Delegator: "0x1111111111111111111111111111111111111111",
			Delegatee: "0x2222222222222222222222222222222222222222",
			Nonce:     "0",
			Signature: "0xsig",
		})
		require.NoError(t, err)
	}

	all, err := svc.ListDelegationsByDelegator(context.Background(), "0x1111111111111111111111111111111111111111", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	polygon, err := svc.ListDelegationsByDelegator(context.Background(), "0x1111111111111111111111111111111111111111", 137)
	require.NoError(t, err)
	require.Len(t, polygon, 1)
	assert.Equal(t, int64(137), polygon[0].ChainID)
}
