package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialapp-backend/config"
	"socialapp-backend/internal/api/message"
	"socialapp-backend/internal/api/post"
	"socialapp-backend/internal/api/user"
	"socialapp-backend/internal/middleware"
	"socialapp-backend/internal/realtime"
	"socialapp-backend/internal/repository/mysql"
	"socialapp-backend/internal/service"
	"socialapp-backend/internal/storage"
	"socialapp-backend/internal/util"
	"socialapp-backend/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 应用数据库迁移
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("mysql"); err != nil {
		util.Logger.Fatal("设置迁移方言失败", zap.Error(err))
	}
	if err := goose.Up(db, "."); err != nil {
		util.Logger.Fatal("应用数据库迁移失败", zap.Error(err))
	}
	util.Logger.Info("数据库迁移完成")

	// 初始化文件存储
	fileStorage, err := storage.New()
	if err != nil {
		util.Logger.Fatal("初始化文件存储失败", zap.Error(err))
	}

	// 初始化存储库、服务和处理器
	userRepo := mysql.NewUserRepository(db)
	postRepo := mysql.NewPostRepository(db)
	messageRepo := mysql.NewMessageRepository(db)

	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, userRepo)

	authHandler := user.NewAuthHandler(userService)
	profileHandler := user.NewProfileHandler(userService, fileStorage)
	postHandler := post.NewPostHandler(postService)
	messageHandler := message.NewMessageHandler(messageService)

	// 启动实时中继
	hub := realtime.NewHub()
	go hub.Run()

	// 设置 Gin 路由
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.MetricsMiddleware())

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	r.Use(cors.New(corsConfig))

	// 本地存储时配置静态文件服务
	if config.AppConfig.StorageDriver == "local" {
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	// 指标端点
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 实时中继端点
	r.GET("/ws", realtime.ServeWS(hub))

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 公开路由
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// 需要认证的路由
		authorized := api.Group("/")
		authorized.Use(middleware.AuthMiddleware())
		{
			authorized.GET("/profile", profileHandler.GetProfile)
			authorized.PUT("/profile", profileHandler.UpdateProfile)
			authorized.POST("/profile/avatar", profileHandler.UploadAvatar)

			authorized.GET("/posts", postHandler.ListPosts)
			authorized.POST("/posts", postHandler.CreatePost)
			authorized.GET("/posts/:id", postHandler.GetPost)
			authorized.POST("/posts/:id/like", postHandler.ToggleLike)
			authorized.POST("/posts/:id/comment", postHandler.AddComment)

			authorized.GET("/messages/conversations", messageHandler.ListConversations)
			authorized.GET("/messages/:conversationId", messageHandler.ListMessages)
			authorized.POST("/messages", messageHandler.SendMessage)
		}
	}

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.ServerPort,
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("port", config.AppConfig.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}
