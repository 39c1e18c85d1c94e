package handlers

import (
	"net/http"

	"storefront-backend/application/dto"
	"storefront-backend/application/services"
	"storefront-backend/domain/core/entities"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"go.uber.org/zap"
)

// ChatHandler serves customer support chats
type ChatHandler struct {
	chats  *services.ChatService
	errs   *errors.ErrorHandler
	logger *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chats *services.ChatService, errs *errors.ErrorHandler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chats, errs: errs, logger: logger}
}

type chatsResponse struct {
	Chats []dto.Chat `json:"chats"`
}

type messagesResponse struct {
	Messages []entities.Message `json:"messages"`
}

type conversationResponse struct {
	Conversation dto.Chat `json:"updatedConversation"`
}

func chatCaller(r *http.Request) (services.Caller, error) {
	user, err := caller(r)
	if err != nil {
		return services.Caller{}, err
	}
	return services.Caller{UserID: user.UserID, Admin: user.IsAdmin()}, nil
}

// List handles GET /chats
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	who, err := chatCaller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	chats, err := h.chats.List(r.Context(), who)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, chatsResponse{Chats: chats})
}

// Messages handles GET /chats/{chatId}
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	who, err := chatCaller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	id, err := pathID(r, "chatId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	messages, err := h.chats.Messages(r.Context(), who, id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, messagesResponse{Messages: messages})
}

// Send handles PUT /chats/{chatId}
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	who, err := chatCaller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	id, err := pathID(r, "chatId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	var req services.MessageInput
	if err := common.DecodeJSON(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	sent, err := h.chats.Send(r.Context(), who, id, req)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, sent)
}

// MarkRead handles PATCH /chats/{chatId}
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	who, err := chatCaller(r)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	id, err := pathID(r, "chatId")
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	chat, err := h.chats.MarkRead(r.Context(), who, id)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, conversationResponse{Conversation: chat})
}
