package model

import (
	"errors"
	"fmt"
	"memchat/platform"
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_conversation_id_created_at" json:"conversation_id"`
	Role           string    `gorm:"type:varchar(64)" json:"role"`
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_conversation_id_created_at" json:"created_at"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// CreateMessage appends a message to an existing conversation. The
// owning conversation must exist; a dangling conversation id is
// rejected before anything is written.
func CreateMessage(conversationID uint, role, content string) (*Message, error) {
	db := platform.DB
	if _, err := GetConversation(conversationID); err != nil {
		return nil, err
	}
	message := &Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return message, nil
}

// ListMessages returns the conversation history in creation order, ids
// breaking ties between same-timestamp rows.
func ListMessages(conversationID uint) ([]Message, error) {
	db := platform.DB
	var messages []Message
	err := db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// FirstMessageByRole returns the earliest message with the given role,
// or nil when the conversation has none.
func FirstMessageByRole(conversationID uint, role string) (*Message, error) {
	db := platform.DB
	var message Message
	err := db.Where("conversation_id = ? AND role = ?", conversationID, role).
		Order("created_at ASC, id ASC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &message, nil
}

func CountMessages() (int64, error) {
	db := platform.DB
	var count int64
	if err := db.Model(&Message{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
