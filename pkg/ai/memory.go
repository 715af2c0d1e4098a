package ai

import (
	"context"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// MessageLister is the slice of the store the memory needs. *db.Queries
// satisfies it.
type MessageLister interface {
	ListRecentMessagesByChat(ctx context.Context, chatID string, limit int64) ([]*db.Message, error)
}

// Memory loads the recent transcript of a chat for prompt assembly.
type Memory struct {
	store  MessageLister
	logger *logger.Logger
}

// NewMemory creates a Memory over the given store.
func NewMemory(store MessageLister, log *logger.Logger) *Memory {
	return &Memory{store: store, logger: log}
}

// GetHistory returns up to limit prior turns in chronological order. The
// store serves newest-first, so the page is reversed before returning. A
// store failure degrades to an empty history rather than failing the
// generation.
func (m *Memory) GetHistory(ctx context.Context, chatID string, limit int) []Turn {
	if chatID == "" || limit <= 0 {
		return nil
	}
	messages, err := m.store.ListRecentMessagesByChat(ctx, chatID, int64(limit))
	if err != nil {
		m.logger.Warn("failed to load chat history, continuing without it", "chat_id", chatID, "error", err)
		return nil
	}

	turns := make([]Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		role := msg.Role
		if role != RoleUser && role != RoleAssistant && role != RoleSystem {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Content: msg.Content})
	}
	return turns
}
