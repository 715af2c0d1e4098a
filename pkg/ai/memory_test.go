package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

func TestGetHistoryReversesToChronologicalOrder(t *testing.T) {
	// The store serves newest-first.
	lister := &fakeLister{messages: []*db.Message{
		{Role: "assistant", Content: "third"},
		{Role: "user", Content: "second"},
		{Role: "assistant", Content: "first"},
	}}
	m := NewMemory(lister, logger.NewNop())

	turns := m.GetHistory(context.Background(), "chat-1", 10)

	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "second", turns[1].Content)
	assert.Equal(t, "third", turns[2].Content)
	assert.Equal(t, RoleAssistant, turns[0].Role)
	assert.Equal(t, RoleUser, turns[1].Role)
}

func TestGetHistoryStoreFailureDegradesToEmpty(t *testing.T) {
	lister := &fakeLister{err: errors.New("disk io")}
	m := NewMemory(lister, logger.NewNop())

	turns := m.GetHistory(context.Background(), "chat-1", 10)

	assert.Empty(t, turns)
}

func TestGetHistoryUnknownRoleBecomesUser(t *testing.T) {
	lister := &fakeLister{messages: []*db.Message{
		{Role: "tool", Content: "raw"},
	}}
	m := NewMemory(lister, logger.NewNop())

	turns := m.GetHistory(context.Background(), "chat-1", 10)

	require.Len(t, turns, 1)
	assert.Equal(t, RoleUser, turns[0].Role)
}

func TestGetHistoryRespectsLimit(t *testing.T) {
	lister := &fakeLister{messages: []*db.Message{
		{Role: "user", Content: "newest"},
		{Role: "user", Content: "older"},
		{Role: "user", Content: "oldest"},
	}}
	m := NewMemory(lister, logger.NewNop())

	turns := m.GetHistory(context.Background(), "chat-1", 2)

	require.Len(t, turns, 2)
	// The two newest, in chronological order.
	assert.Equal(t, "older", turns[0].Content)
	assert.Equal(t, "newest", turns[1].Content)
}

func TestGetHistoryEmptyChatID(t *testing.T) {
	m := NewMemory(&fakeLister{}, logger.NewNop())
	assert.Empty(t, m.GetHistory(context.Background(), "", 10))
}
