package controller

import (
	"net/http"

	"memchat/platform"
	"memchat/service"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	cleanup       *service.CleanupService
	conversations *service.ConversationService
}

func NewAdminController(cleanup *service.CleanupService, conversations *service.ConversationService) *AdminController {
	return &AdminController{cleanup: cleanup, conversations: conversations}
}

func (ctrl *AdminController) Stats(c *gin.Context) {
	stats, err := ctrl.cleanup.Stats()
	if err != nil {
		logger.Warnf("[%s] Failed to collect stats: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ctrl *AdminController) Cleanup(c *gin.Context) {
	logger.Infof("[%s] Handling cleanup request", c.GetString("requestId"))
	report, err := ctrl.cleanup.Run()
	if err != nil {
		logger.Warnf("[%s] Cleanup failed: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (ctrl *AdminController) Retitle(c *gin.Context) {
	retitled, err := ctrl.conversations.RetitleAll()
	if err != nil {
		logger.Warnf("[%s] Retitle failed: %s", c.GetString("requestId"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Retitle failed"})
		return
	}
	logger.Infof("[%s] Retitled %d conversations", c.GetString("requestId"), retitled)
	c.JSON(http.StatusOK, gin.H{"retitled": retitled})
}

// Health reports process liveness plus a database ping.
func (ctrl *AdminController) Health(c *gin.Context) {
	dbOk := false
	if sqlDB, err := platform.DB.DB(); err == nil {
		dbOk = sqlDB.Ping() == nil
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"db":         dbOk,
		"request_id": c.GetString("requestId"),
	})
}
