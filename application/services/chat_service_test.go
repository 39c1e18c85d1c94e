package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/domain/core/entities"
	"storefront-backend/domain/events"
	"storefront-backend/pkg/errors"
	"storefront-backend/pkg/utils"
)

// tickingClock advances a minute on every call
func tickingClock() utils.Clock {
	now := testNow
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newChatEnv(t *testing.T) (*testEnv, *ChatService) {
	t.Helper()
	env := newTestEnv(t)
	env.user(t, "a1", "Admin", entities.RoleAdmin)
	env.user(t, "u1", "Ada", entities.RoleUser)
	env.user(t, "u2", "Bob", entities.RoleUser)
	return env, NewChatService(env.stores, env.lists, env.bus, env.logger, tickingClock())
}

func TestChatService_CustomerChatIsOpenedOnce(t *testing.T) {
	env, svc := newChatEnv(t)
	ada := Caller{UserID: "u1"}

	first, err := svc.List(env.ctx, ada)
	require.NoError(t, err)
	require.Len(t, first, 1)
	chat := first[0]
	assert.Equal(t, "u1", chat.ID)
	require.Len(t, chat.Participants, 2)
	assert.Equal(t, "Admin", chat.Participants[0].Name)
	assert.Equal(t, "Ada", chat.Participants[1].Name)
	assert.Equal(t, []string{"u1"}, chat.LastMessageReadBy)
	assert.Empty(t, chat.LastMessage)

	again, err := svc.List(env.ctx, ada)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, chat.CreatedAt, again[0].CreatedAt)

	docs, err := env.stores.Chats.List(env.ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestChatService_NoAdministrator(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "u1", "Ada", entities.RoleUser)
	svc := NewChatService(env.stores, env.lists, env.bus, env.logger, testClock)

	_, err := svc.List(env.ctx, Caller{UserID: "u1"})
	assert.True(t, errors.IsNotFound(err))
}

func TestChatService_SendAndRead(t *testing.T) {
	env, svc := newChatEnv(t)
	ada, admin := Caller{UserID: "u1"}, Caller{UserID: "a1", Admin: true}
	_, err := svc.List(env.ctx, ada)
	require.NoError(t, err)

	sent, err := svc.Send(env.ctx, ada, "u1", MessageInput{Text: "Where is my order?"})
	require.NoError(t, err)
	assert.Equal(t, "u1", sent.Message.SenderID)
	assert.Equal(t, "u1", sent.Message.ChatID)
	assert.Equal(t, "Where is my order?", sent.Chat.LastMessage)
	assert.Equal(t, []string{"u1"}, sent.Chat.LastMessageReadBy)

	reply, err := svc.Send(env.ctx, admin, "u1", MessageInput{Text: "👍", IsOnlyEmoji: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, reply.Chat.LastMessageReadBy)

	messages, err := svc.Messages(env.ctx, ada, "u1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Where is my order?", messages[0].Text)
	assert.True(t, messages[1].IsOnlyEmoji)

	read, err := svc.MarkRead(env.ctx, ada, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "u1"}, read.LastMessageReadBy)

	// Reading twice records the reader once
	read, err = svc.MarkRead(env.ctx, ada, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "u1"}, read.LastMessageReadBy)

	cached, err := env.lists.Chats.All(env.ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "👍", cached[0].LastMessage)
	assert.Equal(t, []string{"a1", "u1"}, cached[0].LastMessageReadBy)

	sentEvents := env.bus.OfType(events.TypeMessageSent)
	assert.Len(t, sentEvents, 2)
}

func TestChatService_AdminListsActiveChats(t *testing.T) {
	env, svc := newChatEnv(t)
	admin := Caller{UserID: "a1", Admin: true}
	for _, id := range []string{"u1", "u2"} {
		_, err := svc.List(env.ctx, Caller{UserID: id})
		require.NoError(t, err)
	}

	chats, err := svc.List(env.ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, chats, "chats without messages are hidden")

	_, err = svc.Send(env.ctx, Caller{UserID: "u1"}, "u1", MessageInput{Text: "hi"})
	require.NoError(t, err)
	_, err = svc.Send(env.ctx, Caller{UserID: "u2"}, "u2", MessageInput{Text: "hello"})
	require.NoError(t, err)

	chats, err = svc.List(env.ctx, admin)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "u2", chats[0].ID, "most recently active first")
	assert.Equal(t, "u1", chats[1].ID)

	other, err := svc.List(env.ctx, Caller{UserID: "a9", Admin: true})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestChatService_Rejects(t *testing.T) {
	env, svc := newChatEnv(t)
	_, err := svc.List(env.ctx, Caller{UserID: "u1"})
	require.NoError(t, err)

	forbidden := func(err error) bool { return errors.IsType(err, errors.ErrorTypeForbidden) }
	tests := []struct {
		name  string
		run   func() error
		check func(error) bool
	}{
		{"empty message", func() error {
			_, err := svc.Send(env.ctx, Caller{UserID: "u1"}, "u1", MessageInput{})
			return err
		}, errors.IsValidation},
		{"unknown chat", func() error {
			_, err := svc.Messages(env.ctx, Caller{UserID: "u1"}, "nope")
			return err
		}, errors.IsNotFound},
		{"read another customer's chat", func() error {
			_, err := svc.Messages(env.ctx, Caller{UserID: "u2"}, "u1")
			return err
		}, forbidden},
		{"send to another customer's chat", func() error {
			_, err := svc.Send(env.ctx, Caller{UserID: "u2"}, "u1", MessageInput{Text: "hi"})
			return err
		}, forbidden},
		{"mark another customer's chat", func() error {
			_, err := svc.MarkRead(env.ctx, Caller{UserID: "u2"}, "u1")
			return err
		}, forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	messages, err := env.stores.Messages.List(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
