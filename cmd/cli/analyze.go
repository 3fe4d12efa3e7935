package main

import (
	"context"
	"fmt"
	"os"

	"triagent/internal/config"
	"triagent/internal/llm"
	"triagent/internal/models"
	"triagent/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var analyzeTicketIDs []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one triage pass over pending tickets",
	Long:  `Fetch incomplete tickets, classify them and persist an analysis run`,
	Run:   analyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeTicketIDs, "ticket", nil, "restrict the run to the given ticket IDs (repeatable)")
	rootCmd.AddCommand(analyzeCmd)
}

func analyze(cmd *cobra.Command, args []string) {
	// 加载配置
	cfg := config.Load()

	// 初始化日志系统
	if err := config.InitLogger(cfg); err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logrus.StandardLogger()

	// 连接数据库
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
	if err := db.AutoMigrate(&models.Ticket{}, &models.AnalysisRun{}, &models.TicketAnalysis{}); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// 构建流水线并同步执行一次
	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.AI.OpenAI.APIKey,
		BaseURL:     cfg.AI.OpenAI.BaseURL,
		Model:       cfg.AI.OpenAI.Model,
		Temperature: cfg.AI.OpenAI.Temperature,
		MaxTokens:   cfg.AI.OpenAI.MaxTokens,
		Timeout:     cfg.AI.OpenAI.Timeout,
	}, appLogger)
	gateway := services.NewGateway(llmClient, cfg.Pipeline.MaxConcurrent, appLogger)
	pipeline := services.NewPipeline(db, gateway, appLogger)

	run, err := pipeline.Run(context.Background(), analyzeTicketIDs)
	if err != nil {
		appLogger.Fatalf("Analysis run failed: %v", err)
	}

	fmt.Printf("Run %s completed\n\n%s\n", run.ID, run.Summary)
}
