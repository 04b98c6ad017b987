// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Xenonn21/voitzu/internal/config"
	"github.com/Xenonn21/voitzu/internal/handler"
	"github.com/Xenonn21/voitzu/internal/middleware"
	"github.com/Xenonn21/voitzu/internal/realtime"
	"github.com/Xenonn21/voitzu/internal/repository"
	"github.com/Xenonn21/voitzu/internal/service"
	"github.com/Xenonn21/voitzu/pkg/database"
	"github.com/Xenonn21/voitzu/pkg/es"
	"github.com/Xenonn21/voitzu/pkg/kafka"
	"github.com/Xenonn21/voitzu/pkg/llm"
	"github.com/Xenonn21/voitzu/pkg/log"
	"github.com/Xenonn21/voitzu/pkg/storage"
	"github.com/Xenonn21/voitzu/pkg/token"
)

func main() {
	// 1. 初始化配置
	cfg, err := config.Init("./configs/config.yaml")
	if err != nil {
		fmt.Printf("配置加载失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、对象存储、ES、Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store := storage.NewClient(cfg.MinIO)
	indexer, err := es.NewClient(cfg.Elasticsearch)
	if err != nil {
		log.Fatalf("es 初始化失败: %v", err)
	}
	producer := kafka.NewProducer(cfg.Kafka)
	defer producer.Close()

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	reportRepo := repository.NewReportRepository(database.DB)
	profileLogRepo := repository.NewProfileLogRepository(database.DB)
	sessionCacheRepo := repository.NewSessionCacheRepository(database.RDB)
	attachmentRepo := repository.NewAttachmentRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	llmClient := llm.NewClient(cfg.Completion)
	userService := service.NewUserService(userRepo, jwtManager, cfg.OAuth)
	profileService := service.NewProfileService(userRepo, profileLogRepo, store, cfg.Avatar)
	chatService := service.NewChatService(sessionRepo, messageRepo, sessionCacheRepo, llmClient, indexer, producer)
	sessionService := service.NewSessionService(sessionRepo, sessionCacheRepo, indexer, producer)
	attachmentService := service.NewAttachmentService(attachmentRepo, store, time.Duration(cfg.Attachment.TTLHours)*time.Hour)
	reportService := service.NewReportService(reportRepo)
	searchService := service.NewSearchService(indexer)
	galleryService := service.NewGalleryService(store)
	adminService := service.NewAdminService(userRepo, reportRepo)

	// 6. 启动会话事件消费者，推送给在线的 WebSocket 连接
	hub := realtime.NewHub()
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	go kafka.StartConsumer(consumerCtx, cfg.Kafka, hub)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	authRequired := middleware.AuthMiddleware(jwtManager, userService)

	// 8. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		userHandler := handler.NewUserHandler(userService, profileService)

		auth := apiV1.Group("/auth")
		{
			authHandler := handler.NewAuthHandler(userService)
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/refreshToken", authHandler.RefreshToken)
			auth.GET("/oauth/google", authHandler.OAuthLogin)
			auth.GET("/oauth/google/callback", authHandler.OAuthCallback)
		}

		users := apiV1.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/me", userHandler.GetProfile)
			users.POST("/logout", userHandler.Logout)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.POST("/profile/reset", userHandler.ResetProfile)
			users.GET("/profile/logs", userHandler.GetProfileLogs)
			users.DELETE("/profile/logs", userHandler.ClearProfileLogs)
		}

		chat := apiV1.Group("/chat")
		chat.Use(authRequired)
		{
			chatHandler := handler.NewChatHandler(chatService)
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/sessions/:id/messages", chatHandler.GetMessages)
			chat.PUT("/sessions/:id/messages/:messageId", chatHandler.EditMessage)
		}

		sessions := apiV1.Group("/sessions")
		sessions.Use(authRequired)
		{
			sessionHandler := handler.NewSessionHandler(sessionService)
			sessions.GET("", sessionHandler.ListSessions)
			sessions.PUT("/:id/title", sessionHandler.RenameSession)
			sessions.PUT("/:id/pin", sessionHandler.TogglePinned)
			sessions.PUT("/:id/archive", sessionHandler.ToggleArchived)
			sessions.DELETE("/:id", sessionHandler.DeleteSession)
		}

		completions := apiV1.Group("/completions")
		completions.Use(authRequired)
		{
			completions.POST("", handler.NewCompletionHandler(llmClient).Complete)
		}

		attachments := apiV1.Group("/attachments")
		attachments.Use(authRequired)
		{
			attachmentHandler := handler.NewAttachmentHandler(attachmentService)
			attachments.POST("", attachmentHandler.Stage)
			attachments.GET("", attachmentHandler.List)
			attachments.GET("/:id/content", attachmentHandler.ReadText)
			attachments.PUT("/:id/content", attachmentHandler.ReplaceContent)
			attachments.DELETE("/:id", attachmentHandler.Revoke)
			attachments.DELETE("", attachmentHandler.RevokeAll)
		}

		reports := apiV1.Group("/reports")
		reports.Use(authRequired)
		{
			reportHandler := handler.NewReportHandler(reportService)
			reports.POST("", reportHandler.Submit)
			reports.GET("", reportHandler.ListOwn)
		}

		search := apiV1.Group("/search")
		search.Use(authRequired)
		{
			search.GET("", handler.NewSearchHandler(searchService).Search)
		}

		images := apiV1.Group("/images")
		images.Use(authRequired)
		{
			images.GET("", handler.NewGalleryHandler(galleryService).ListImages)
		}

		admin := apiV1.Group("/admin")
		admin.Use(authRequired, middleware.AdminAuthMiddleware())
		{
			adminHandler := handler.NewAdminHandler(adminService)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/reports", adminHandler.ListReports)
		}
	}

	// WebSocket 会话动态推送，token 通过 query 参数传入
	r.GET("/ws/sessions", authRequired, handler.NewFeedHandler(hub).Handle)

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
