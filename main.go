package main

import (
	"fmt"
	"log"

	"memchat/config"
	"memchat/controller"
	"memchat/middleware"
	"memchat/model"
	"memchat/platform"
	"memchat/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	fmt.Println("Server started...")

	//Load the .env file
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("failed to load the env file")
	}

	cfg := config.New()

	platform.InitFile("./log", "gin")

	//init database
	platform.InitDB(cfg)
	model.InstallDB()

	// A missing credential must surface to the operator immediately,
	// unlike transient provider failures which degrade to a fallback
	// reply at request time.
	provider, err := platform.NewOpenAIProvider(cfg)
	if err != nil {
		log.Fatalf("completion provider misconfigured: %v", err)
	}

	completionService := service.NewCompletionService(provider, cfg.SmokeTest)
	conversationService := service.NewConversationService(completionService, cfg.MaxLiveConversations)
	cleanupService := service.NewCleanupService(cfg.CleanupDays, cfg.MaxConversations)

	r := gin.Default()
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(middleware.RequestID())
	r.Use(middleware.Log())

	conversations := controller.NewConversationController(conversationService)
	admin := controller.NewAdminController(cleanupService, conversationService)

	r.GET("/health", admin.Health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/conversations", middleware.RateLimit(cfg.RateCreatePerMin), conversations.Create)
		v1.GET("/conversations", conversations.List)
		v1.DELETE("/conversations", middleware.RateLimit(cfg.RateWipePerMin), conversations.DeleteAll)
		v1.GET("/conversations/:id", conversations.Get)
		v1.DELETE("/conversations/:id", conversations.Delete)
		v1.GET("/conversations/:id/messages", conversations.ListMessages)
		v1.POST("/conversations/:id/messages", middleware.RateLimit(cfg.RatePostPerMin), conversations.PostMessage)

		v1.GET("/admin/stats", admin.Stats)
		v1.POST("/admin/cleanup", middleware.RateLimit(cfg.RateCleanupPerMin), admin.Cleanup)
		v1.POST("/admin/retitle", admin.Retitle)
	}

	c := cron.New()
	c.AddFunc(cfg.CleanupCron, func() {
		if _, err := cleanupService.Run(); err != nil {
			platform.Logger.Warnf("[cron] scheduled cleanup failed: %s", err)
		}
	})
	c.Start()

	r.Run(":" + cfg.Port)
}
