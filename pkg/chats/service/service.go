package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Next-Gen-Coders/limitless-server/pkg/ai"
	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// ResponseGenerator produces the assistant reply for a user message. It
// never fails outright; failures surface in the result's Error field with an
// apology as the content.
type ResponseGenerator interface {
	Generate(ctx context.Context, chatID, userMessage string) *ai.Result
}

// ChatService implements chat and message operations, including the
// AI-backed message workflow.
type ChatService struct {
	queries   *db.Queries
	generator ResponseGenerator
	logger    *logger.Logger
}

// NewChatService creates the service.
func NewChatService(queries *db.Queries, generator ResponseGenerator, log *logger.Logger) *ChatService {
	return &ChatService{queries: queries, generator: generator, logger: log}
}

// CreateChat creates a chat owned by userID.
func (s *ChatService) CreateChat(ctx context.Context, userID, title string) (*db.Chat, error) {
	if title == "" {
		title = "New chat"
	}
	chat, err := s.queries.CreateChat(ctx, db.CreateChatParams{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to create chat", err, nil)
	}
	return chat, nil
}

// GetChat returns a chat after checking it belongs to userID.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID string) (*db.Chat, error) {
	chat, err := s.queries.GetChat(ctx, chatID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("chat not found", map[string]interface{}{"chatId": chatID})
		}
		return nil, errors.NewInternalError("failed to load chat", err, nil)
	}
	if chat.UserID != userID {
		return nil, errors.NewForbiddenError("chat belongs to another user", nil)
	}
	return chat, nil
}

// ListChats returns the user's chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]*db.Chat, error) {
	chats, err := s.queries.ListChatsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list chats", err, nil)
	}
	return chats, nil
}

// UpdateChatTitle renames a chat.
func (s *ChatService) UpdateChatTitle(ctx context.Context, userID, chatID, title string) (*db.Chat, error) {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	chat, err := s.queries.UpdateChatTitle(ctx, chatID, title)
	if err != nil {
		return nil, errors.NewInternalError("failed to update chat", err, nil)
	}
	return chat, nil
}

// DeleteChat removes a chat and, via cascade, its messages.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.queries.DeleteChat(ctx, chatID); err != nil {
		return errors.NewInternalError("failed to delete chat", err, nil)
	}
	return nil
}

// MessageExchange is the outcome of the AI message workflow: the persisted
// user message, the persisted assistant reply, and the generation metadata.
type MessageExchange struct {
	UserMessage      *db.Message
	AssistantMessage *db.Message
	ToolsUsed        []string
	ChartData        []byte
	GenerationError  string
}

// CreateMessage runs the full message workflow: persist the user's message,
// generate the assistant reply, persist it, and return both. The user
// message is never lost: if generation fails, the fixed apology is persisted
// as the reply and the error detail is surfaced alongside.
func (s *ChatService) CreateMessage(ctx context.Context, userID, chatID, content string) (*MessageExchange, error) {
	if content == "" {
		return nil, errors.NewValidationError("content is required", nil)
	}
	chat, err := s.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.queries.CreateMessage(ctx, db.CreateMessageParams{
		ID:      uuid.NewString(),
		ChatID:  chat.ID,
		UserID:  userID,
		Role:    "user",
		Content: content,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to store message", err, nil)
	}

	result := s.generator.Generate(ctx, chat.ID, content)
	if result.Error != "" {
		s.logger.Error("assistant generation failed", "chat_id", chat.ID, "error", result.Error)
	}

	assistantMsg, err := s.queries.CreateMessage(ctx, db.CreateMessageParams{
		ID:      uuid.NewString(),
		ChatID:  chat.ID,
		UserID:  userID,
		Role:    "assistant",
		Content: result.Content,
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to store assistant message", err, nil)
	}

	if err := s.queries.TouchChat(ctx, chat.ID); err != nil {
		s.logger.Warn("failed to bump chat activity", "chat_id", chat.ID, "error", err)
	}

	return &MessageExchange{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		ToolsUsed:        result.ToolsUsed,
		ChartData:        result.ChartData,
		GenerationError:  result.Error,
	}, nil
}

// GetMessage returns a message after checking ownership.
func (s *ChatService) GetMessage(ctx context.Context, userID, messageID string) (*db.Message, error) {
	msg, err := s.queries.GetMessage(ctx, messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("message not found", map[string]interface{}{"messageId": messageID})
		}
		return nil, errors.NewInternalError("failed to load message", err, nil)
	}
	if msg.UserID != userID {
		return nil, errors.NewForbiddenError("message belongs to another user", nil)
	}
	return msg, nil
}

// ListMessages returns a chat's messages in chronological order.
func (s *ChatService) ListMessages(ctx context.Context, userID, chatID string) ([]*db.Message, error) {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	messages, err := s.queries.ListMessagesByChat(ctx, chatID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list messages", err, nil)
	}
	return messages, nil
}

// ListUserMessages returns all messages authored in the user's chats.
func (s *ChatService) ListUserMessages(ctx context.Context, userID string) ([]*db.Message, error) {
	messages, err := s.queries.ListMessagesByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list messages", err, nil)
	}
	return messages, nil
}

// UpdateMessage edits a message's content.
func (s *ChatService) UpdateMessage(ctx context.Context, userID, messageID, content string) (*db.Message, error) {
	if content == "" {
		return nil, errors.NewValidationError("content is required", nil)
	}
	if _, err := s.GetMessage(ctx, userID, messageID); err != nil {
		return nil, err
	}
	msg, err := s.queries.UpdateMessageContent(ctx, messageID, content)
	if err != nil {
		return nil, errors.NewInternalError("failed to update message", err, nil)
	}
	return msg, nil
}

// DeleteMessage removes a message.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, messageID string) error {
	if _, err := s.GetMessage(ctx, userID, messageID); err != nil {
		return err
	}
	if err := s.queries.DeleteMessage(ctx, messageID); err != nil {
		return errors.NewInternalError("failed to delete message", err, nil)
	}
	return nil
}
