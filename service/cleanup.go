package service

import (
	"time"

	"memchat/model"
)

// CleanupService bounds storage growth with two independent retention
// policies plus a read-only stats view.
type CleanupService struct {
	DaysOld          int
	MaxConversations int
}

func NewCleanupService(daysOld, maxConversations int) *CleanupService {
	return &CleanupService{DaysOld: daysOld, MaxConversations: maxConversations}
}

type CleanupReport struct {
	OldConversationsRemoved    int64 `json:"old_conversations_removed"`
	OldMessagesRemoved         int64 `json:"old_messages_removed"`
	ExcessConversationsRemoved int64 `json:"excess_conversations_removed"`
	ExcessMessagesRemoved      int64 `json:"excess_messages_removed"`
}

type DatabaseStats struct {
	Conversations      int64      `json:"conversations"`
	Messages           int64      `json:"messages"`
	OldestConversation *time.Time `json:"oldest_conversation"`
}

// CleanupOldConversations removes every conversation created strictly
// before now minus daysOld, messages included, in one all-or-nothing
// batch.
func (s *CleanupService) CleanupOldConversations(daysOld int) (int64, int64, error) {
	cutoff := time.Now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	conversationsRemoved, messagesRemoved, err := model.DeleteConversationsBefore(cutoff)
	if err != nil {
		return 0, 0, newError(ErrorStore, "age-based cleanup", err)
	}
	return conversationsRemoved, messagesRemoved, nil
}

// CleanupExcessConversations deletes the oldest surplus once the total
// exceeds maxConversations, until the cap is met.
func (s *CleanupService) CleanupExcessConversations(maxConversations int) (int64, int64, error) {
	total, err := model.CountConversations()
	if err != nil {
		return 0, 0, newError(ErrorStore, "count conversations", err)
	}
	if total <= int64(maxConversations) {
		return 0, 0, nil
	}
	conversationsRemoved, messagesRemoved, err := model.DeleteOldestConversations(int(total) - maxConversations)
	if err != nil {
		return 0, 0, newError(ErrorStore, "count-based cleanup", err)
	}
	return conversationsRemoved, messagesRemoved, nil
}

// Run applies both policies with the configured thresholds. The cron
// scheduler and the maintenance route both land here.
func (s *CleanupService) Run() (*CleanupReport, error) {
	report := &CleanupReport{}

	oldConversations, oldMessages, err := s.CleanupOldConversations(s.DaysOld)
	if err != nil {
		return nil, err
	}
	report.OldConversationsRemoved = oldConversations
	report.OldMessagesRemoved = oldMessages

	excessConversations, excessMessages, err := s.CleanupExcessConversations(s.MaxConversations)
	if err != nil {
		return nil, err
	}
	report.ExcessConversationsRemoved = excessConversations
	report.ExcessMessagesRemoved = excessMessages

	logger.Infof("[cleanup] removed %d old (%d messages), %d excess (%d messages)",
		report.OldConversationsRemoved, report.OldMessagesRemoved,
		report.ExcessConversationsRemoved, report.ExcessMessagesRemoved)
	return report, nil
}

// Stats reports current storage shape without mutating anything.
func (s *CleanupService) Stats() (*DatabaseStats, error) {
	conversations, err := model.CountConversations()
	if err != nil {
		return nil, newError(ErrorStore, "count conversations", err)
	}
	messages, err := model.CountMessages()
	if err != nil {
		return nil, newError(ErrorStore, "count messages", err)
	}
	oldest, err := model.OldestConversationTime()
	if err != nil {
		return nil, newError(ErrorStore, "oldest conversation", err)
	}
	return &DatabaseStats{
		Conversations:      conversations,
		Messages:           messages,
		OldestConversation: oldest,
	}, nil
}
