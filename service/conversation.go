package service

import (
	"context"
	"errors"
	"strings"

	"memchat/model"
	"memchat/platform"
)

var logger = platform.Logger

const (
	titleMaxLen  = 40
	titleCutLen  = 37
	titleTrailer = "..."
)

type ConversationService struct {
	completion *CompletionService
	// maxLive caps live conversations at creation time; 0 disables.
	maxLive int
}

func NewConversationService(completion *CompletionService, maxLive int) *ConversationService {
	return &ConversationService{completion: completion, maxLive: maxLive}
}

func (s *ConversationService) CreateConversation(title string) (*model.Conversation, error) {
	if s.maxLive > 0 {
		count, err := model.CountConversations()
		if err != nil {
			return nil, newError(ErrorStore, "count conversations", err)
		}
		if count >= int64(s.maxLive) {
			return nil, newError(ErrorCapacity, "live conversation limit reached, delete some first", nil)
		}
	}
	conversation, err := model.CreateConversation(strings.TrimSpace(title))
	if err != nil {
		return nil, newError(ErrorStore, "create conversation", err)
	}
	return conversation, nil
}

// PostMessage runs one message turn: persist the incoming message,
// derive a title on the first user message, replay the full history to
// the completion service, and persist its output as the assistant
// reply. The returned message is always the assistant's.
func (s *ConversationService) PostMessage(ctx context.Context, conversationID uint, role, content string) (*model.Message, error) {
	if !model.IsValidRole(role) {
		return nil, newError(ErrorValidation, "role must be user, assistant or system", nil)
	}

	conversation, err := model.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, model.ErrConversationNotFound) {
			return nil, newError(ErrorNotFound, "conversation not found", err)
		}
		return nil, newError(ErrorStore, "get conversation", err)
	}

	if _, err := model.CreateMessage(conversationID, role, content); err != nil {
		return nil, newError(ErrorStore, "create message", err)
	}

	if conversation.Title == model.DefaultTitle && role == model.RoleUser {
		if title := DeriveTitle(content); title != "" {
			if err := model.UpdateTitleIfDefault(conversationID, title); err != nil {
				return nil, newError(ErrorStore, "update title", err)
			}
		}
	}

	history, err := model.ListMessages(conversationID)
	if err != nil {
		return nil, newError(ErrorStore, "list messages", err)
	}

	prompt := make([]platform.ChatMessage, 0, len(history))
	for _, message := range history {
		prompt = append(prompt, platform.ChatMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	reply, err := s.completion.Complete(ctx, prompt, conversationID)
	if err != nil {
		return nil, err
	}

	assistantMessage, err := model.CreateMessage(conversationID, model.RoleAssistant, reply)
	if err != nil {
		return nil, newError(ErrorStore, "create assistant message", err)
	}
	return assistantMessage, nil
}

// RetitleAll re-derives titles for every conversation still at the
// sentinel, from each one's earliest user message. Conversations with
// no user message are skipped. Returns how many were retitled.
func (s *ConversationService) RetitleAll() (int, error) {
	conversations, err := model.ListDefaultTitleConversations()
	if err != nil {
		return 0, newError(ErrorStore, "list conversations", err)
	}

	retitled := 0
	for _, conversation := range conversations {
		first, err := model.FirstMessageByRole(conversation.ID, model.RoleUser)
		if err != nil {
			return retitled, newError(ErrorStore, "find first user message", err)
		}
		if first == nil {
			continue
		}
		title := DeriveTitle(first.Content)
		if title == "" {
			continue
		}
		if err := model.UpdateTitleIfDefault(conversation.ID, title); err != nil {
			return retitled, newError(ErrorStore, "update title", err)
		}
		retitled++
	}
	return retitled, nil
}

// DeriveTitle turns the first user message into a conversation title:
// trimmed content up to 40 characters kept whole, anything longer cut
// to 37 characters plus "..." for exactly 40.
func DeriveTitle(content string) string {
	title := []rune(strings.TrimSpace(content))
	if len(title) > titleMaxLen {
		return string(title[:titleCutLen]) + titleTrailer
	}
	return string(title)
}
