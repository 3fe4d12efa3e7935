package main

import (
	"fmt"
	"log"
	"os"

	"triagent/internal/config"
	"triagent/internal/models"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// 加载配置
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
	cfg := config.Load()

	// 连接数据库
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Database.Host, cfg.Database.User, cfg.Database.Password, cfg.Database.Name, cfg.Database.Port,
		)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Starting database migration...")

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Ticket{},
		&models.AnalysisRun{},
		&models.TicketAnalysis{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migration completed successfully!")

	// 创建索引
	log.Println("Creating additional indexes...")

	// 为工单表创建复合索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_tickets_status_created ON tickets(status, created_at)")

	// 为工单分析表创建复合索引
	db.Exec("CREATE INDEX IF NOT EXISTS idx_ticket_analyses_ticket_created ON ticket_analyses(ticket_id, created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_ticket_analyses_run ON ticket_analyses(analysis_run_id)")

	log.Println("Additional indexes created successfully!")

	// 插入默认数据
	if len(os.Args) > 1 && os.Args[1] == "--seed" {
		log.Println("Seeding sample tickets...")
		seedSampleTickets(db)
		log.Println("Sample tickets seeded successfully!")
	}

	log.Println("Migration process completed!")
}

func seedSampleTickets(db *gorm.DB) {
	samples := []models.Ticket{
		{
			Title:       "Login page returns 500 error",
			Description: "Users report the login page crashes with an internal server error since this morning.",
		},
		{
			Title:       "Double charged on monthly invoice",
			Description: "Customer was billed twice for the April subscription and requests a refund.",
		},
		{
			Title:       "Add dark mode support",
			Description: "It would be nice to have a dark theme option in the settings page.",
		},
	}
	for _, t := range samples {
		var existing models.Ticket
		if err := db.Where("title = ?", t.Title).First(&existing).Error; err != nil {
			db.Create(&t)
			log.Printf("Created sample ticket: %s", t.Title)
		}
	}
}
