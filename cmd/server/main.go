package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"triagent/internal/config"
	"triagent/internal/handlers"
	"triagent/internal/llm"
	"triagent/internal/middleware"
	"triagent/internal/models"
	"triagent/internal/observability"
	"triagent/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"
)

func main() {
	// 读取配置文件（默认 ./config.yml）并初始化日志
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	cfg := config.Load()
	if err := config.InitLogger(cfg); err != nil {
		logrus.Warnf("init logger: %v", err)
	}
	appLogger := logrus.StandardLogger()

	// 初始化分布式追踪
	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg)
	if err != nil {
		appLogger.Warnf("setup tracing: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	// 构建 Postgres DSN 并连接数据库；DATABASE_URL 环境变量可整体覆盖
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.Port,
		)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		appLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Monitoring.Tracing.Enabled {
		if err := db.Use(gormtracing.NewPlugin(gormtracing.WithoutMetrics())); err != nil {
			appLogger.Warnf("gorm tracing plugin: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// 根据需要迁移（此处默认迁移，生产可改为条件控制）
	if err := db.AutoMigrate(
		&models.Ticket{}, &models.AnalysisRun{}, &models.TicketAnalysis{},
	); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 LLM 客户端与分类网关
	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.AI.OpenAI.APIKey,
		BaseURL:     cfg.AI.OpenAI.BaseURL,
		Model:       cfg.AI.OpenAI.Model,
		Temperature: cfg.AI.OpenAI.Temperature,
		MaxTokens:   cfg.AI.OpenAI.MaxTokens,
		Timeout:     cfg.AI.OpenAI.Timeout,
	}, appLogger)
	gateway := services.NewGateway(llmClient, cfg.Pipeline.MaxConcurrent, appLogger)

	// 初始化业务服务
	pipeline := services.NewPipeline(db, gateway, appLogger)
	ticketService := services.NewTicketService(db, appLogger)
	analysisService := services.NewAnalysisService(db, appLogger)

	// 初始化 Gin
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	if cfg.Security.CORS.Enabled {
		r.Use(corsMiddleware(cfg))
	}
	r.Use(middleware.RateLimitMiddleware(cfg))
	if cfg.Monitoring.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Monitoring.Tracing.ServiceName))
	}

	// 健康检查
	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)

	// API 路由组
	api := r.Group("/api")
	handlers.RegisterTicketRoutes(api, handlers.NewTicketHandler(ticketService, appLogger))
	handlers.RegisterAnalysisRoutes(api, handlers.NewAnalysisHandler(pipeline, analysisService, appLogger))

	// 启动服务器
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		appLogger.Infof("Starting server on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		appLogger.Warnf("shutdown tracing: %v", err)
	}
	appLogger.Info("Server exited")
}

// corsMiddleware CORS 中间件，按配置放行来源
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	cors := cfg.Security.CORS
	origins := strings.Join(cors.AllowedOrigins, ", ")
	if origins == "" {
		origins = "*"
	}
	methods := strings.Join(cors.AllowedMethods, ", ")
	if methods == "" {
		methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	headers := strings.Join(cors.AllowedHeaders, ", ")
	if headers == "" || headers == "*" {
		headers = "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origins)
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
