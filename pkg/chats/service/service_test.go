package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

type stubGenerator struct {
	result *ai.Result
	gotChatID  string
	gotMessage string
}

func (s *stubGenerator) Generate(_ context.Context, chatID, userMessage string) *ai.Result {
	s.gotChatID = chatID
	s.gotMessage = userMessage
	return s.result
}

func setupChatService(t *testing.T, gen ResponseGenerator) (*ChatService, *db.Queries, *db.User) {
	t.Helper()
	database, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))
	queries := db.New(database)

	user, err := queries.CreateUser(context.Background(), db.CreateUserParams{
		ID:      uuid.NewString(),
		PrivyID: "did:privy:test",
	})
	require.NoError(t, err)

	return NewChatService(queries, gen, logger.NewNop()), queries, user
}

func TestCreateMessagePersistsBothSides(t *testing.T) {
	gen := &stubGenerator{result: &ai.Result{
		Content:   "You hold 2 ETH.",
		ToolsUsed: []string{"token_balances"},
		ChartData: []byte(`{"type":"line"}`),
	}}
	svc, queries, user := setupChatService(t, gen)

	chat, err := svc.CreateChat(context.Background(), user.ID, "balances")
	require.NoError(t, err)

	exchange, err := svc.CreateMessage(context.Background(), user.ID, chat.ID, "what do I hold?")
	require.NoError(t, err)

	assert.Equal(t, "what do I hold?", exchange.UserMessage.Content)
	assert.Equal(t, "user", exchange.UserMessage.Role)
	assert.Equal(t, "You hold 2 ETH.", exchange.AssistantMessage.Content)
	assert.Equal(t, "assistant", exchange.AssistantMessage.Role)
	assert.Equal(t, []string{"token_balances"}, exchange.ToolsUsed)
	assert.JSONEq(t, `{"type":"line"}`, string(exchange.ChartData))
	assert.Empty(t, exchange.GenerationError)
	assert.Equal(t, chat.ID, gen.gotChatID)

	messages, err := queries.ListMessagesByChat(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestCreateMessageGenerationFailureKeepsUserMessage(t *testing.T) {
	gen := &stubGenerator{result: &ai.Result{
		Content: "I apologize, but I'm having trouble processing your request right now. Please try again in a moment.",
		Error:   "model invocation 1: rate limited",
	}}
	svc, queries, user := setupChatService(t, gen)

	chat, err := svc.CreateChat(context.Background(), user.ID, "test")
	require.NoError(t, err)

	exchange, err := svc.CreateMessage(context.Background(), user.ID, chat.ID, "hello")
	require.NoError(t, err)

	assert.Contains(t, exchange.AssistantMessage.Content, "I apologize")
	assert.Equal(t, "model invocation 1: rate limited", exchange.GenerationError)

	// Both turns are on disk, so retries see the full history.
	messages, err := queries.ListMessagesByChat(context.Background(), chat.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestCreateMessageRejectsForeignChat(t *testing.T) {
	gen := &stubGenerator{result: &ai.Result{Content: "hi"}}
	svc, queries, user := setupChatService(t, gen)

	other, err := queries.CreateUser(context.Background(), db.CreateUserParams{
		ID:      uuid.NewString(),
		PrivyID: "did:privy:other",
	})
	require.NoError(t, err)
	foreignChat, err := svc.CreateChat(context.Background(), other.ID, "theirs")
	require.NoError(t, err)

	_, err = svc.CreateMessage(context.Background(), user.ID, foreignChat.ID, "hello")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ForbiddenError))
}

func TestCreateMessageEmptyContent(t *testing.T) {
	svc, _, user := setupChatService(t, &stubGenerator{result: &ai.Result{Content: "hi"}})

	chat, err := svc.CreateChat(context.Background(), user.ID, "test")
	require.NoError(t, err)

	_, err = svc.CreateMessage(context.Background(), user.ID, chat.ID, "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ValidationError))
}

func TestChatCRUD(t *testing.T) {
	svc, _, user := setupChatService(t, &stubGenerator{result: &ai.Result{Content: "hi"}})
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "New chat", chat.Title)

	renamed, err := svc.UpdateChatTitle(ctx, user.ID, chat.ID, "Gas questions")
	require.NoError(t, err)
	assert.Equal(t, "Gas questions", renamed.Title)

	chats, err := svc.ListChats(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 1)

	require.NoError(t, svc.DeleteChat(ctx, user.ID, chat.ID))

	_, err = svc.GetChat(ctx, user.ID, chat.ID)
	assert.True(t, errors.IsType(err, errors.NotFoundError))
}

func TestMessageCRUD(t *testing.T) {
	svc, _, user := setupChatService(t, &stubGenerator{result: &ai.Result{Content: "reply"}})
	ctx := context.Background()

	chat, err := svc.CreateChat(ctx, user.ID, "test")
	require.NoError(t, err)
	exchange, err := svc.CreateMessage(ctx, user.ID, chat.ID, "original")
	require.NoError(t, err)

	updated, err := svc.UpdateMessage(ctx, user.ID, exchange.UserMessage.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, svc.DeleteMessage(ctx, user.ID, exchange.UserMessage.ID))

	_, err = svc.GetMessage(ctx, user.ID, exchange.UserMessage.ID)
	assert.True(t, errors.IsType(err, errors.NotFoundError))

	remaining, err := svc.ListMessages(ctx, user.ID, chat.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
