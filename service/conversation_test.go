package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"memchat/model"
	"memchat/platform"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Conversation{}, &model.Message{}))
	platform.DB = db
}

func newTestServices(t *testing.T, provider Provider) *ConversationService {
	t.Helper()
	setupTestDB(t)
	return NewConversationService(NewCompletionService(provider, false), 0)
}

func TestDeriveTitle(t *testing.T) {
	// Short content is kept whole, no truncation marker.
	require.Equal(t, "Hi", DeriveTitle("Hi"))
	require.Equal(t, "Hi", DeriveTitle("  Hi  "))

	exactly40 := strings.Repeat("a", 40)
	require.Equal(t, exactly40, DeriveTitle(exactly40))

	over := strings.Repeat("b", 41)
	title := DeriveTitle(over)
	require.Len(t, title, 40)
	require.Equal(t, strings.Repeat("b", 37)+"...", title)
}

func TestPostMessageWorkflow(t *testing.T) {
	provider := &fakeProvider{reply: "Nice to meet you!"}
	conversations := newTestServices(t, provider)

	conversation, err := conversations.CreateConversation("")
	require.NoError(t, err)

	assistantMessage, err := conversations.PostMessage(context.Background(), conversation.ID, model.RoleUser, "Hello, who are you?")
	require.NoError(t, err)
	require.Equal(t, model.RoleAssistant, assistantMessage.Role)
	require.Equal(t, "Nice to meet you!", assistantMessage.Content)
	require.NotZero(t, assistantMessage.ID)

	// The provider saw the selected personality plus the stored history.
	require.NotEmpty(t, provider.messages)
	require.Equal(t, model.RoleSystem, provider.messages[0].Role)
	require.Equal(t, "Hello, who are you?", provider.messages[len(provider.messages)-1].Content)

	// Both the user message and the reply are durable.
	history, err := model.ListMessages(conversation.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, model.RoleUser, history[0].Role)
	require.Equal(t, model.RoleAssistant, history[1].Role)

	// First user message derives the title.
	got, err := model.GetConversation(conversation.ID)
	require.NoError(t, err)
	require.Equal(t, "Hello, who are you?", got.Title)
}

func TestPostMessageNotFoundWritesNothing(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	conversations := newTestServices(t, provider)

	_, err := conversations.PostMessage(context.Background(), 123, model.RoleUser, "anyone there?")
	require.Error(t, err)
	require.Equal(t, ErrorNotFound, CodeOf(err))
	require.Zero(t, provider.calls)

	count, err := model.CountMessages()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPostMessageRejectsUnknownRole(t *testing.T) {
	provider := &fakeProvider{reply: "unused"}
	conversations := newTestServices(t, provider)

	conversation, err := conversations.CreateConversation("")
	require.NoError(t, err)

	_, err = conversations.PostMessage(context.Background(), conversation.ID, "moderator", "hello")
	require.Error(t, err)
	require.Equal(t, ErrorValidation, CodeOf(err))

	count, err := model.CountMessages()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestPostMessageTitleDerivedOnlyOnce(t *testing.T) {
	provider := &fakeProvider{reply: "reply"}
	conversations := newTestServices(t, provider)

	conversation, err := conversations.CreateConversation("")
	require.NoError(t, err)

	_, err = conversations.PostMessage(context.Background(), conversation.ID, model.RoleUser, "first message")
	require.NoError(t, err)
	_, err = conversations.PostMessage(context.Background(), conversation.ID, model.RoleUser, "second message")
	require.NoError(t, err)

	got, err := model.GetConversation(conversation.ID)
	require.NoError(t, err)
	require.Equal(t, "first message", got.Title)
}

func TestPostMessageSystemRoleKeepsSentinelTitle(t *testing.T) {
	provider := &fakeProvider{reply: "reply"}
	conversations := newTestServices(t, provider)

	conversation, err := conversations.CreateConversation("")
	require.NoError(t, err)

	_, err = conversations.PostMessage(context.Background(), conversation.ID, model.RoleSystem, "be terse")
	require.NoError(t, err)

	got, err := model.GetConversation(conversation.ID)
	require.NoError(t, err)
	require.Equal(t, model.DefaultTitle, got.Title)
}

func TestPostMessageProviderFailureStillPersistsFallback(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	conversations := newTestServices(t, provider)

	conversation, err := conversations.CreateConversation("")
	require.NoError(t, err)

	assistantMessage, err := conversations.PostMessage(context.Background(), conversation.ID, model.RoleUser, "hello?")
	require.NoError(t, err)
	require.Equal(t, FallbackReply, assistantMessage.Content)

	history, err := model.ListMessages(conversation.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, FallbackReply, history[1].Content)
}

func TestCreateConversationCapacity(t *testing.T) {
	setupTestDB(t)
	conversations := NewConversationService(NewCompletionService(&fakeProvider{}, false), 2)

	_, err := conversations.CreateConversation("one")
	require.NoError(t, err)
	_, err = conversations.CreateConversation("two")
	require.NoError(t, err)

	_, err = conversations.CreateConversation("three")
	require.Error(t, err)
	require.Equal(t, ErrorCapacity, CodeOf(err))

	count, err := model.CountConversations()
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestRetitleAll(t *testing.T) {
	provider := &fakeProvider{reply: "reply"}
	conversations := newTestServices(t, provider)

	// Sentinel title with a user message: retitled from its earliest
	// user line.
	withUser, err := model.CreateConversation("")
	require.NoError(t, err)
	_, err = model.CreateMessage(withUser.ID, model.RoleAssistant, "welcome")
	require.NoError(t, err)
	_, err = model.CreateMessage(withUser.ID, model.RoleUser, "tell me about tides")
	require.NoError(t, err)

	// Sentinel title but no user message: skipped.
	withoutUser, err := model.CreateConversation("")
	require.NoError(t, err)
	_, err = model.CreateMessage(withoutUser.ID, model.RoleSystem, "be helpful")
	require.NoError(t, err)

	// Already titled: untouched.
	titled, err := model.CreateConversation("existing title")
	require.NoError(t, err)
	_, err = model.CreateMessage(titled.ID, model.RoleUser, "a much longer user message than the title")
	require.NoError(t, err)

	retitled, err := conversations.RetitleAll()
	require.NoError(t, err)
	require.Equal(t, 1, retitled)

	got, err := model.GetConversation(withUser.ID)
	require.NoError(t, err)
	require.Equal(t, "tell me about tides", got.Title)

	got, err = model.GetConversation(withoutUser.ID)
	require.NoError(t, err)
	require.Equal(t, model.DefaultTitle, got.Title)

	got, err = model.GetConversation(titled.ID)
	require.NoError(t, err)
	require.Equal(t, "existing title", got.Title)
}
