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

	"it-helpdesk-go/internal/config"
	"it-helpdesk-go/internal/handler"
	"it-helpdesk-go/internal/middleware"
	"it-helpdesk-go/internal/repository"
	"it-helpdesk-go/internal/service"
	"it-helpdesk-go/pkg/gemini"
	"it-helpdesk-go/pkg/kafka"
	"it-helpdesk-go/pkg/log"
	"it-helpdesk-go/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化外部客户端：Gemini、对象存储、Kafka
	geminiClient, err := gemini.NewClient(context.Background(), cfg.Gemini)
	if err != nil {
		log.Fatal("Gemini 客户端初始化失败", err)
	}

	objectStore := newObjectStore(cfg.Storage)
	kafka.InitProducer(cfg.Kafka)
	defer kafka.Close()

	// 4. 初始化 Repository（会话存储是进程内的权威数据源，重启后丢失）
	conversationRepo := repository.NewConversationRepository(cfg.Chat.DefaultTitle, cfg.Chat.WelcomeMessage)

	// 5. 初始化 Service (依赖注入)
	conversationService := service.NewConversationService(conversationRepo)
	aiService := service.NewAIService(geminiClient)
	chatService := service.NewChatService(conversationRepo, aiService, objectStore)
	uploadService := service.NewUploadService(objectStore, cfg.Upload.MaxFileSizeMB*1024*1024)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.MaxMultipartMemory = cfg.Upload.MaxFileSizeMB * 1024 * 1024

	// 7. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// Conversation 路由组
		conversationHandler := handler.NewConversationHandler(conversationService, chatService)
		conversations := apiV1.Group("/conversations")
		{
			conversations.GET("", conversationHandler.ListConversations)
			conversations.POST("", conversationHandler.CreateConversation)
			conversations.GET("/:id", conversationHandler.GetConversation)
			conversations.DELETE("/:id", conversationHandler.DeleteConversation)
			conversations.POST("/:id/clear", conversationHandler.ClearConversation)
			conversations.POST("/:id/messages", conversationHandler.AddMessage)
		}

		// AI 网关路由组
		aiHandler := handler.NewAIHandler(aiService)
		ai := apiV1.Group("/ai")
		{
			ai.POST("/process-text", aiHandler.ProcessText)
			ai.POST("/process-image", aiHandler.ProcessImage)
			ai.POST("/process-audio", aiHandler.ProcessAudio)
			ai.POST("/process-multimodal", aiHandler.ProcessMultiModal)
		}

		// Upload 路由
		apiV1.POST("/upload", handler.NewUploadHandler(uploadService).Upload)
	}

	// 8. 启动 HTTP 服务器并实现优雅停机
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

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}

// newObjectStore 根据配置选择附件对象存储的实现。
func newObjectStore(cfg config.StorageConfig) storage.ObjectStore {
	if cfg.Provider == "minio" {
		store, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			log.Fatal("初始化 MinIO 对象存储失败", err)
		}
		return store
	}
	log.Info("附件使用内存对象存储（内容随进程重启丢失）")
	return storage.NewMemoryStore()
}
