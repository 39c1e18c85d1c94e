package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"storefront-backend/application/dto"
	"storefront-backend/application/ports"
	"storefront-backend/domain/core/entities"
	"storefront-backend/domain/events"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// MessageInput is a chat message sent by the caller
type MessageInput struct {
	Text        string `json:"text" validate:"required,max=2000"`
	IsOnlyEmoji bool   `json:"isOnlyEmoji"`
}

// Caller identifies the authenticated user of a chat request
type Caller struct {
	UserID string
	Admin  bool
}

// SentMessage is the stored message and its updated chat
type SentMessage struct {
	Message entities.Message `json:"newMessage"`
	Chat    dto.Chat         `json:"updatedConversation"`
}

// ChatService manages customer support chats. Messages are stored; live
// delivery to connected clients is left to MessageSent subscribers.
type ChatService struct {
	stores ports.Stores
	lists  *Collections
	proj   *projector
	events ports.EventPublisher
	logger *zap.Logger
	now    utils.Clock
}

// NewChatService creates a new chat service
func NewChatService(stores ports.Stores, lists *Collections, publisher ports.EventPublisher, logger *zap.Logger, clock utils.Clock) *ChatService {
	return &ChatService{
		stores: stores,
		lists:  lists,
		proj:   &projector{stores: stores},
		events: publisher,
		logger: logger.Named("chat"),
		now:    clock,
	}
}

// List returns the caller's chats. An administrator sees every chat they
// take part in that has a message, most recently active first. A customer
// sees their one chat, which is opened with an administrator on first use.
func (s *ChatService) List(ctx context.Context, who Caller) ([]dto.Chat, error) {
	if !who.Admin {
		chat, err := s.open(ctx, who.UserID)
		if err != nil {
			return nil, err
		}
		return []dto.Chat{chat}, nil
	}

	all, err := s.lists.Chats.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Chat, 0, len(all))
	for _, c := range all {
		if c.LastMessage != "" && hasParticipant(c, who.UserID) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func hasParticipant(c dto.Chat, userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// open returns the customer's chat, creating it with the first
// administrator when missing
func (s *ChatService) open(ctx context.Context, userID string) (dto.Chat, error) {
	chat, err := s.lists.Chats.Get(ctx, userID)
	if err == nil || !errors.IsNotFound(err) {
		return chat, err
	}

	admins, err := s.stores.Users.FindBy(ctx, "role", entities.RoleAdmin)
	if err != nil {
		return dto.Chat{}, err
	}
	if len(admins) == 0 {
		return dto.Chat{}, errors.NewNotFoundError("Administrator")
	}

	doc := entities.Chat{
		ID:                userID,
		ParticipantIDs:    []string{admins[0].ID, userID},
		LastMessageReadBy: []string{userID},
	}
	doc.Touch(s.now())
	if err := s.stores.Chats.Create(ctx, doc); err != nil {
		if errors.IsConflict(err) {
			// Opened by a concurrent request
			return s.lists.Chats.Get(ctx, userID)
		}
		return dto.Chat{}, err
	}

	out, err := s.proj.chat(ctx, doc)
	if err != nil {
		return dto.Chat{}, err
	}
	s.lists.Chats.Created(ctx, out)
	s.logger.Info("chat opened", zap.String("chat_id", doc.ID), zap.String("admin_id", admins[0].ID))
	return out, nil
}

// authorize loads the chat and checks the caller may use it
func (s *ChatService) authorize(ctx context.Context, who Caller, chatID string) (entities.Chat, error) {
	chat, err := s.stores.Chats.Get(ctx, chatID)
	if err != nil {
		return entities.Chat{}, err
	}
	if !who.Admin && !chat.HasParticipant(who.UserID) {
		return entities.Chat{}, errors.NewForbiddenError("You are not a participant of this chat")
	}
	return chat, nil
}

// Messages returns the messages of a chat in the order they were sent
func (s *ChatService) Messages(ctx context.Context, who Caller, chatID string) ([]entities.Message, error) {
	if _, err := s.authorize(ctx, who, chatID); err != nil {
		return nil, err
	}
	messages, err := s.stores.Messages.FindBy(ctx, "chatId", chatID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []entities.Message{}
	}
	return messages, nil
}

// Send stores a message from the caller and makes it the chat's last
// message, read only by the sender
func (s *ChatService) Send(ctx context.Context, who Caller, chatID string, in MessageInput) (SentMessage, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return SentMessage{}, errors.NewValidationError("Message text is required").WithCause(err)
	}
	chat, err := s.authorize(ctx, who, chatID)
	if err != nil {
		return SentMessage{}, err
	}

	msg := entities.Message{
		ID:          entities.NewID(),
		ChatID:      chat.ID,
		Text:        in.Text,
		IsOnlyEmoji: in.IsOnlyEmoji,
		SenderID:    who.UserID,
	}
	msg.Touch(s.now())
	if err := s.stores.Messages.Create(ctx, msg); err != nil {
		return SentMessage{}, err
	}

	chat.LastMessage = msg.Text
	chat.LastMessageReadBy = []string{who.UserID}
	chat.Touch(s.now())
	if err := s.stores.Chats.Update(ctx, chat); err != nil {
		return SentMessage{}, err
	}
	out, err := s.proj.chat(ctx, chat)
	if err != nil {
		return SentMessage{}, err
	}
	s.lists.Chats.Updated(ctx, out)

	if s.events != nil {
		event := events.NewMessageSent(chat.ID, msg.ID, who.UserID, chat.ParticipantIDs, msg.CreatedAt)
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish event", zap.String("type", event.GetEventType()), zap.Error(err))
		}
	}
	s.logger.Debug("message sent", zap.String("chat_id", chat.ID), zap.String("message_id", msg.ID))
	return SentMessage{Message: msg, Chat: out}, nil
}

// MarkRead records that the caller has read the chat's last message
func (s *ChatService) MarkRead(ctx context.Context, who Caller, chatID string) (dto.Chat, error) {
	chat, err := s.authorize(ctx, who, chatID)
	if err != nil {
		return dto.Chat{}, err
	}
	if !chat.MarkRead(who.UserID) {
		return s.proj.chat(ctx, chat)
	}

	chat.Touch(s.now())
	if err := s.stores.Chats.Update(ctx, chat); err != nil {
		return dto.Chat{}, err
	}
	out, err := s.proj.chat(ctx, chat)
	if err != nil {
		return dto.Chat{}, err
	}
	s.lists.Chats.Updated(ctx, out)
	return out, nil
}
