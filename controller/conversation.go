package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"memchat/model"
	"memchat/platform"
	"memchat/service"

	"github.com/gin-gonic/gin"
)

var logger = platform.Logger

type ConversationController struct {
	conversations *service.ConversationService
}

func NewConversationController(conversations *service.ConversationService) *ConversationController {
	return &ConversationController{conversations: conversations}
}

func statusForCode(code service.ErrorCode) int {
	switch code {
	case service.ErrorNotFound:
		return http.StatusNotFound
	case service.ErrorValidation:
		return http.StatusBadRequest
	case service.ErrorCapacity:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation id"})
		return 0, false
	}
	return uint(id), true
}

func (ctrl *ConversationController) Create(c *gin.Context) {
	var input struct {
		Title string `json:"title"`
	}

	// An empty body means an untitled conversation.
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	conversation, err := ctrl.conversations.CreateConversation(input.Title)
	if err != nil {
		logger.Warnf("[%s] Failed to create conversation: %s", c.GetString("requestId"), err)
		c.JSON(statusForCode(service.CodeOf(err)), gin.H{"error": err.Error()})
		return
	}

	logger.Infof("[%s] Created conversation %d", c.GetString("requestId"), conversation.ID)
	c.JSON(http.StatusCreated, conversation)
}

func (ctrl *ConversationController) List(c *gin.Context) {
	conversations, err := model.ListConversations()
	if err != nil {
		logger.Warnf("[%s] Failed to list conversations: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (ctrl *ConversationController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	conversation, err := model.GetConversation(id)
	if err != nil {
		if errors.Is(err, model.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.Warnf("[%s] Failed to get conversation %d: %s", c.GetString("requestId"), id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get conversation"})
		return
	}

	messages, err := model.ListMessages(id)
	if err != nil {
		logger.Warnf("[%s] Failed to list messages for conversation %d: %s", c.GetString("requestId"), id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}
	conversation.Messages = messages

	c.JSON(http.StatusOK, conversation)
}

func (ctrl *ConversationController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	conversationsRemoved, messagesRemoved, err := model.DeleteConversation(id)
	if err != nil {
		if errors.Is(err, model.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		logger.Warnf("[%s] Failed to delete conversation %d: %s", c.GetString("requestId"), id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete conversation"})
		return
	}

	logger.Infof("[%s] Deleted conversation %d (%d messages)", c.GetString("requestId"), id, messagesRemoved)
	c.JSON(http.StatusOK, gin.H{
		"message":               "Conversation deleted",
		"conversations_removed": conversationsRemoved,
		"messages_removed":      messagesRemoved,
	})
}

func (ctrl *ConversationController) DeleteAll(c *gin.Context) {
	conversationsRemoved, messagesRemoved, err := model.DeleteAllConversations()
	if err != nil {
		logger.Warnf("[%s] Failed to clear conversations: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear conversations"})
		return
	}

	logger.Infof("[%s] Cleared %d conversations (%d messages)", c.GetString("requestId"), conversationsRemoved, messagesRemoved)
	c.JSON(http.StatusOK, gin.H{
		"message":               "All conversations cleared",
		"conversations_removed": conversationsRemoved,
		"messages_removed":      messagesRemoved,
	})
}

func (ctrl *ConversationController) ListMessages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	messages, err := model.ListMessages(id)
	if err != nil {
		logger.Warnf("[%s] Failed to list messages for conversation %d: %s", c.GetString("requestId"), id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (ctrl *ConversationController) PostMessage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var input struct {
		Role    string `json:"role" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warnf("[%s] Invalid input, %s", c.GetString("requestId"), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "role and content are required"})
		return
	}

	assistantMessage, err := ctrl.conversations.PostMessage(c.Request.Context(), id, input.Role, input.Content)
	if err != nil {
		logger.Warnf("[%s] Failed to post message to conversation %d: %s", c.GetString("requestId"), id, err)
		c.JSON(statusForCode(service.CodeOf(err)), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, assistantMessage)
}
