package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Queries {
	t.Helper()
	database, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, RunMigrations(database))
	return New(database)
}

func createTestUser(t *testing.T, q *Queries) *User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		ID:            uuid.NewString(),
		PrivyID:       "did:privy:" + uuid.NewString(),
		Email:         sql.NullString{String: "user@example.com", Valid: true},
		WalletAddress: sql.NullString{String: "0x1234567890abcdef1234567890abcdef12345678", Valid: true},
	})
	require.NoError(t, err)
	return u
}

func TestUpsertUserUpdatesExistingRow(t *testing.T) {
	q := setupTestDB(t)
	u := createTestUser(t, q)

	updated, err := q.UpsertUser(context.Background(), UpsertUserParams{
		ID:            uuid.NewString(),
		PrivyID:       u.PrivyID,
		Email:         sql.NullString{String: "new@example.com", Valid: true},
		WalletAddress: u.WalletAddress,
	})
	require.NoError(t, err)

	// Conflict on privy_id keeps the original row id.
	assert.Equal(t, u.ID, updated.ID)
	assert.Equal(t, "new@example.com", updated.Email.String)
}

func TestGetUserByChatID(t *testing.T) {
	q := setupTestDB(t)
	u := createTestUser(t, q)
	chat, err := q.CreateChat(context.Background(), CreateChatParams{
		ID:     uuid.NewString(),
		UserID: u.ID,
		Title:  "Portfolio questions",
	})
	require.NoError(t, err)

	got, err := q.GetUserByChatID(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PrivyID, got.PrivyID)
}

func TestListRecentMessagesByChatReturnsNewestFirst(t *testing.T) {
	q := setupTestDB(t)
	u := createTestUser(t, q)
	chat, err := q.CreateChat(context.Background(), CreateChatParams{
		ID:     uuid.NewString(),
		UserID: u.ID,
		Title:  "test",
	})
	require.NoError(t, err)

	// All inserts land within the same CURRENT_TIMESTAMP second, and random
	// UUID ids carry no ordering, so only the rowid tiebreak keeps these in
	// insertion order.
	for i := 0; i < 12; i++ {
		_, err := q.CreateMessage(context.Background(), CreateMessageParams{
			ID:      uuid.NewString(),
			ChatID:  chat.ID,
			UserID:  u.ID,
			Role:    "user",
			Content: fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}

	recent, err := q.ListRecentMessagesByChat(context.Background(), chat.ID, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "message 11", recent[0].Content)
	assert.Equal(t, "message 10", recent[1].Content)
	assert.Equal(t, "message 9", recent[2].Content)

	all, err := q.ListMessagesByChat(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, all, 12)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
	}
}

func TestDeleteChatCascadesMessages(t *testing.T) {
	q := setupTestDB(t)
	u := createTestUser(t, q)
	chat, err := q.CreateChat(context.Background(), CreateChatParams{
		ID:     uuid.NewString(),
		UserID: u.ID,
		Title:  "test",
	})
	require.NoError(t, err)
	_, err = q.CreateMessage(context.Background(), CreateMessageParams{
		ID:      uuid.NewString(),
		ChatID:  chat.ID,
		UserID:  u.ID,
		Role:    "user",
		Content: "hello",
	})
	require.NoError(t, err)

	require.NoError(t, q.DeleteChat(context.Background(), chat.ID))

	messages, err := q.ListMessagesByChat(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	err = q.DeleteChat(context.Background(), chat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelegationUniqueness(t *testing.T) {
	q := setupTestDB(t)
	u := createTestUser(t, q)

	params := CreateDelegationParams{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ChainID:   1,
		Delegator: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Delegatee: "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Nonce:     "7",
		Signature: "0xsig",
		Status:    "active",
	}
	_, err := q.CreateDelegation(context.Background(), params)
	require.NoError(t, err)

	params.ID = uuid.NewString()
	_, err = q.CreateDelegation(context.Background(), params)
	assert.Error(t, err, "same user/chain/nonce must be rejected")

	byDelegator, err := q.ListDelegationsByDelegator(context.Background(), params.Delegator, 1)
	require.NoError(t, err)
	assert.Len(t, byDelegator, 1)

	other, err := q.ListDelegationsByDelegator(context.Background(), params.Delegator, 137)
	require.NoError(t, err)
	assert.Empty(t, other)

	all, err := q.ListDelegationsByDelegator(context.Background(), params.Delegator, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSwapTransactionLifecycle(t *testing.T) {
	q := setupTestDB(t)
	u := createTestUser(t, q)

	swap, err := q.CreateSwapTransaction(context.Background(), CreateSwapTransactionParams{
		ID:              uuid.NewString(),
		UserID:          u.ID,
		SrcChainID:      1,
		DstChainID:      137,
		SrcTokenAddress: "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		DstTokenAddress: "0xffffffffffffffffffffffffffffffffffffffff",
		Amount:          "1000000000000000000",
		WalletAddress:   u.WalletAddress.String,
		Status:          "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", swap.Status)

	err = q.UpdateSwapTransactionOrder(context.Background(), UpdateSwapTransactionOrderParams{
		ID:        swap.ID,
		Status:    "processing",
		OrderHash: sql.NullString{String: "0xorder", Valid: true},
		Quote:     sql.NullString{String: `{"dstAmount":"42"}`, Valid: true},
	})
	require.NoError(t, err)

	byHash, err := q.GetSwapTransactionByOrderHash(context.Background(), "0xorder")
	require.NoError(t, err)
	assert.Equal(t, swap.ID, byHash.ID)
	assert.Equal(t, "processing", byHash.Status)

	require.NoError(t, q.UpdateSwapTransactionStatus(context.Background(), swap.ID, "completed", sql.NullString{}))

	list, err := q.ListSwapTransactionsByUser(context.Background(), u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "completed", list[0].Status)
}
