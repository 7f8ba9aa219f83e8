package model

import (
	"errors"
	"fmt"
	"memchat/platform"
	"time"

	"gorm.io/gorm"
)

// DefaultTitle is the sentinel a conversation carries until its first
// user message derives a real title.
const DefaultTitle = "New Conversation"

var ErrConversationNotFound = errors.New("conversation not found")

type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	Messages  []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func CreateConversation(title string) (*Conversation, error) {
	db := platform.DB
	if title == "" {
		title = DefaultTitle
	}
	conversation := &Conversation{Title: title}
	if err := db.Create(conversation).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

func ListConversations() ([]Conversation, error) {
	db := platform.DB
	var conversations []Conversation
	err := db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).Order("created_at DESC, id DESC").Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

func GetConversation(id uint) (*Conversation, error) {
	db := platform.DB
	var conversation Conversation
	if err := db.First(&conversation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &conversation, nil
}

// UpdateTitleIfDefault sets a conversation title only while it still
// carries the sentinel. The guard lives in the WHERE clause, so a
// concurrent post that already retitled the row turns this into a
// no-op instead of a lost-update race.
func UpdateTitleIfDefault(id uint, title string) error {
	db := platform.DB
	err := db.Model(&Conversation{}).
		Where("id = ? AND title = ?", id, DefaultTitle).
		Update("title", title).Error
	if err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	return nil
}

// ListDefaultTitleConversations returns every conversation still at the
// sentinel title, oldest first.
func ListDefaultTitleConversations() ([]Conversation, error) {
	db := platform.DB
	var conversations []Conversation
	err := db.Where("title = ?", DefaultTitle).
		Order("created_at ASC, id ASC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}

// DeleteConversation removes one conversation and all its messages in a
// single transaction. Messages go first so no orphan can survive a
// partial failure.
func DeleteConversation(id uint) (int64, int64, error) {
	db := platform.DB
	var conversationsRemoved, messagesRemoved int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var conversation Conversation
		if err := tx.First(&conversation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return err
		}
		result := tx.Where("conversation_id = ?", id).Delete(&Message{})
		if result.Error != nil {
			return result.Error
		}
		messagesRemoved = result.RowsAffected
		result = tx.Delete(&Conversation{}, id)
		if result.Error != nil {
			return result.Error
		}
		conversationsRemoved = result.RowsAffected
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("failed to delete conversation: %w", err)
	}
	return conversationsRemoved, messagesRemoved, nil
}

// DeleteAllConversations wipes both tables in one transaction.
func DeleteAllConversations() (int64, int64, error) {
	db := platform.DB
	var conversationsRemoved, messagesRemoved int64
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Message{})
		if result.Error != nil {
			return result.Error
		}
		messagesRemoved = result.RowsAffected
		result = tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Conversation{})
		if result.Error != nil {
			return result.Error
		}
		conversationsRemoved = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete all conversations: %w", err)
	}
	return conversationsRemoved, messagesRemoved, nil
}

// DeleteConversationsBefore removes every conversation created before
// the cutoff, with its messages, as one all-or-nothing batch.
func DeleteConversationsBefore(cutoff time.Time) (int64, int64, error) {
	db := platform.DB
	var conversationsRemoved, messagesRemoved int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&Conversation{}).
			Where("created_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return deleteConversationBatch(tx, ids, &conversationsRemoved, &messagesRemoved)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete old conversations: %w", err)
	}
	return conversationsRemoved, messagesRemoved, nil
}

// DeleteOldestConversations removes the n oldest conversations by
// created_at, with their messages, as one all-or-nothing batch.
func DeleteOldestConversations(n int) (int64, int64, error) {
	db := platform.DB
	if n <= 0 {
		return 0, 0, nil
	}
	var conversationsRemoved, messagesRemoved int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&Conversation{}).
			Order("created_at ASC, id ASC").
			Limit(n).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return deleteConversationBatch(tx, ids, &conversationsRemoved, &messagesRemoved)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete oldest conversations: %w", err)
	}
	return conversationsRemoved, messagesRemoved, nil
}

func deleteConversationBatch(tx *gorm.DB, ids []uint, conversationsRemoved, messagesRemoved *int64) error {
	result := tx.Where("conversation_id IN ?", ids).Delete(&Message{})
	if result.Error != nil {
		return result.Error
	}
	*messagesRemoved = result.RowsAffected
	result = tx.Where("id IN ?", ids).Delete(&Conversation{})
	if result.Error != nil {
		return result.Error
	}
	*conversationsRemoved = result.RowsAffected
	return nil
}

func CountConversations() (int64, error) {
	db := platform.DB
	var count int64
	if err := db.Model(&Conversation{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// OldestConversationTime returns nil when no conversations exist.
func OldestConversationTime() (*time.Time, error) {
	db := platform.DB
	var conversation Conversation
	err := db.Order("created_at ASC, id ASC").First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return &conversation.CreatedAt, nil
}
