package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Next-Gen-Coders/limitless-server/pkg/auth"
	"github.com/Next-Gen-Coders/limitless-server/pkg/chats/service"
	"github.com/Next-Gen-Coders/limitless-server/pkg/errors"
	"github.com/Next-Gen-Coders/limitless-server/pkg/http/response"
	"github.com/Next-Gen-Coders/limitless-server/pkg/logger"
)

// Handler serves chat and message endpoints.
type Handler struct {
	service  *service.ChatService
	logger   *logger.Logger
	validate *validator.Validate
}

// NewHandler creates a chat handler.
func NewHandler(svc *service.ChatService, log *logger.Logger) *Handler {
	return &Handler{
		service:  svc,
		logger:   log,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the chat routes. The router is already behind the
// auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chats", func(r chi.Router) {
		r.Post("/", response.Middleware(h.CreateChat))
		r.Get("/{id}", response.Middleware(h.GetChat))
		r.Put("/{id}", response.Middleware(h.UpdateChat))
		r.Delete("/{id}", response.Middleware(h.DeleteChat))
		r.Get("/{chatId}/messages", response.Middleware(h.ListChatMessages))
	})
	r.Route("/messages", func(r chi.Router) {
		r.Post("/", response.Middleware(h.CreateMessage))
		r.Get("/{id}", response.Middleware(h.GetMessage))
		r.Put("/{id}", response.Middleware(h.UpdateMessage))
		r.Delete("/{id}", response.Middleware(h.DeleteMessage))
	})
	r.Get("/users/{userId}/chats", response.Middleware(h.ListUserChats))
	r.Get("/users/{userId}/messages", response.Middleware(h.ListUserMessages))
}

// CreateChat godoc
// @Summary Create a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param request body CreateChatRequest true "Chat title"
// @Success 201 {object} ChatResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Router /user/chats [post]
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{"error": err.Error()})
	}
	chat, err := h.service.CreateChat(r.Context(), user.ID, req.Title)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusCreated, toChatResponse(chat))
	return nil
}

// GetChat godoc
// @Summary Get a chat
// @Tags chats
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} ChatResponse
// @Failure 404 {object} response.ErrorResponse "Chat not found"
// @Router /user/chats/{id} [get]
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	chat, err := h.service.GetChat(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toChatResponse(chat))
	return nil
}

// ListUserChats godoc
// @Summary List a user's chats
// @Tags chats
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} ChatResponse
// @Router /user/users/{userId}/chats [get]
func (h *Handler) ListUserChats(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	if chi.URLParam(r, "userId") != user.ID {
		return errors.NewForbiddenError("cannot list another user's chats", nil)
	}
	chats, err := h.service.ListChats(r.Context(), user.ID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toChatResponses(chats))
	return nil
}

// UpdateChat godoc
// @Summary Rename a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param request body UpdateChatRequest true "New title"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Router /user/chats/{id} [put]
func (h *Handler) UpdateChat(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	var req UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return errors.NewValidationError("invalid chat update", map[string]interface{}{"error": err.Error()})
	}
	chat, err := h.service.UpdateChatTitle(r.Context(), user.ID, chi.URLParam(r, "id"), req.Title)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toChatResponse(chat))
	return nil
}

// DeleteChat godoc
// @Summary Delete a chat and its messages
// @Tags chats
// @Param id path string true "Chat ID"
// @Success 204 "Deleted"
// @Failure 404 {object} response.ErrorResponse "Chat not found"
// @Router /user/chats/{id} [delete]
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	if err := h.service.DeleteChat(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusNoContent, nil)
	return nil
}

// CreateMessage godoc
// @Summary Send a message and receive the assistant reply
// @Description Persists the user message, runs the AI workflow, persists and returns the assistant reply
// @Tags messages
// @Accept json
// @Produce json
// @Param request body CreateMessageRequest true "Message"
// @Success 201 {object} ExchangeResponse
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Router /user/messages [post]
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return errors.NewValidationError("invalid message", map[string]interface{}{"error": err.Error()})
	}
	exchange, err := h.service.CreateMessage(r.Context(), user.ID, req.ChatID, req.Content)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusCreated, toExchangeResponse(exchange))
	return nil
}

// GetMessage godoc
// @Summary Get a message
// @Tags messages
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} response.ErrorResponse "Message not found"
// @Router /user/messages/{id} [get]
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	msg, err := h.service.GetMessage(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toMessageResponse(msg))
	return nil
}

// ListChatMessages godoc
// @Summary List a chat's messages in order
// @Tags messages
// @Produce json
// @Param chatId path string true "Chat ID"
// @Success 200 {array} MessageResponse
// @Router /user/chats/{chatId}/messages [get]
func (h *Handler) ListChatMessages(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	messages, err := h.service.ListMessages(r.Context(), user.ID, chi.URLParam(r, "chatId"))
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toMessageResponses(messages))
	return nil
}

// ListUserMessages godoc
// @Summary List all messages in the user's chats
// @Tags messages
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {array} MessageResponse
// @Router /user/users/{userId}/messages [get]
func (h *Handler) ListUserMessages(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	if chi.URLParam(r, "userId") != user.ID {
		return errors.NewForbiddenError("cannot list another user's messages", nil)
	}
	messages, err := h.service.ListUserMessages(r.Context(), user.ID)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toMessageResponses(messages))
	return nil
}

// UpdateMessage godoc
// @Summary Edit a message
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body UpdateMessageRequest true "New content"
// @Success 200 {object} MessageResponse
// @Router /user/messages/{id} [put]
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	var req UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errors.NewValidationError("invalid request body", map[string]interface{}{"error": err.Error()})
	}
	if err := h.validate.Struct(req); err != nil {
		return errors.NewValidationError("invalid message update", map[string]interface{}{"error": err.Error()})
	}
	msg, err := h.service.UpdateMessage(r.Context(), user.ID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusOK, toMessageResponse(msg))
	return nil
}

// DeleteMessage godoc
// @Summary Delete a message
// @Tags messages
// @Param id path string true "Message ID"
// @Success 204 "Deleted"
// @Router /user/messages/{id} [delete]
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) error {
	user, err := auth.UserFromContext(r.Context())
	if err != nil {
		return err
	}
	if err := h.service.DeleteMessage(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		return err
	}
	response.WriteJSON(w, http.StatusNoContent, nil)
	return nil
}
