package http

import (
	"encoding/json"
	"time"

	"github.com/Next-Gen-Coders/limitless-server/pkg/chats/service"
	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
)

// CreateChatRequest is the payload for POST /chats.
type CreateChatRequest struct {
	Title string `json:"title"`
}

// UpdateChatRequest is the payload for PUT /chats/{id}.
type UpdateChatRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

// CreateMessageRequest is the payload for POST /messages.
type CreateMessageRequest struct {
	ChatID  string `json:"chatId" validate:"required,uuid4"`
	Content string `json:"content" validate:"required,min=1,max=8000"`
}

// UpdateMessageRequest is the payload for PUT /messages/{id}.
type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8000"`
}

// ChatResponse is the JSON shape of a chat.
type ChatResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageResponse is the JSON shape of a message.
type MessageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExchangeResponse is returned by the message workflow: both persisted
// messages plus the generation metadata.
type ExchangeResponse struct {
	UserMessage      MessageResponse `json:"userMessage"`
	AssistantMessage MessageResponse `json:"assistantMessage"`
	ToolsUsed        []string        `json:"toolsUsed,omitempty"`
	ChartData        json.RawMessage `json:"chartData,omitempty"`
	Error            string          `json:"error,omitempty"`
}

func toChatResponse(c *db.Chat) ChatResponse {
	return ChatResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toChatResponses(chats []*db.Chat) []ChatResponse {
	out := make([]ChatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatResponse(c))
	}
	return out
}

func toMessageResponse(m *db.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		UserID:    m.UserID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toMessageResponses(messages []*db.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func toExchangeResponse(e *service.MessageExchange) ExchangeResponse {
	return ExchangeResponse{
		UserMessage:      toMessageResponse(e.UserMessage),
		AssistantMessage: toMessageResponse(e.AssistantMessage),
		ToolsUsed:        e.ToolsUsed,
		ChartData:        json.RawMessage(e.ChartData),
		Error:            e.GenerationError,
	}
}
