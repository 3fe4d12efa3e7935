package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"triagent/internal/models"
)

// TicketService 工单管理服务
type TicketService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewTicketService(db *gorm.DB, logger *logrus.Logger) *TicketService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TicketService{
		db:     db,
		logger: logger,
	}
}

// TicketCreateRequest 单个工单创建请求
type TicketCreateRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"required,min=1"`
}

// TicketBatchCreateRequest 批量创建工单请求
type TicketBatchCreateRequest struct {
	Tickets []TicketCreateRequest `json:"tickets" binding:"required,min=1,dive"`
}

// TicketView 工单视图：附带最近一次分析的结果字段
type TicketView struct {
	models.Ticket
	Category *string `json:"category"`
	Priority *string `json:"priority"`
	Notes    *string `json:"notes"`
}

// CreateTickets 批量创建工单，单事务提交
func (s *TicketService) CreateTickets(ctx context.Context, req *TicketBatchCreateRequest) ([]models.Ticket, error) {
	if req == nil || len(req.Tickets) == 0 {
		return nil, &ValidationError{Message: "tickets is required"}
	}
	for i, t := range req.Tickets {
		if strings.TrimSpace(t.Title) == "" || len(t.Title) > 255 {
			return nil, &ValidationError{Message: fmt.Sprintf("tickets[%d]: title must be 1-255 characters", i)}
		}
		if strings.TrimSpace(t.Description) == "" {
			return nil, &ValidationError{Message: fmt.Sprintf("tickets[%d]: description is required", i)}
		}
	}

	tickets := make([]models.Ticket, len(req.Tickets))
	for i, t := range req.Tickets {
		tickets[i] = models.Ticket{
			Title:       t.Title,
			Description: t.Description,
			Status:      models.TicketStatusIncomplete,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tickets {
			if err := tx.Create(&tickets[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &PersistenceError{Op: "create tickets", Err: err}
	}

	s.logger.Infof("Created %d tickets", len(tickets))
	return tickets, nil
}

// ListTickets 列出全部工单，并各自带上最近一次分析结果
func (s *TicketService) ListTickets(ctx context.Context) ([]TicketView, error) {
	var tickets []models.Ticket
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, &PersistenceError{Op: "list tickets", Err: err}
	}

	// 一次取全部分析行（新到旧），每个工单保留首条即最新
	var analyses []models.TicketAnalysis
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&analyses).Error; err != nil {
		return nil, &PersistenceError{Op: "list ticket analyses", Err: err}
	}
	latest := make(map[string]*models.TicketAnalysis, len(tickets))
	for i := range analyses {
		if _, ok := latest[analyses[i].TicketID]; !ok {
			latest[analyses[i].TicketID] = &analyses[i]
		}
	}

	views := make([]TicketView, len(tickets))
	for i, t := range tickets {
		views[i] = TicketView{Ticket: t}
		if a, ok := latest[t.ID]; ok {
			views[i].Category = &a.Category
			views[i].Priority = &a.Priority
			views[i].Notes = &a.Notes
		}
	}
	return views, nil
}

// TicketStats 工单统计信息
type TicketStats struct {
	Total      int64 `json:"total"`
	Incomplete int64 `json:"incomplete"`
	Complete   int64 `json:"complete"`
}

// GetTicketStats 获取工单状态统计
func (s *TicketService) GetTicketStats(ctx context.Context) (*TicketStats, error) {
	stats := &TicketStats{}
	db := s.db.WithContext(ctx).Model(&models.Ticket{})

	if err := db.Count(&stats.Total).Error; err != nil {
		return nil, &PersistenceError{Op: "count tickets", Err: err}
	}
	if err := s.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("status = ?", models.TicketStatusIncomplete).
		Count(&stats.Incomplete).Error; err != nil {
		return nil, &PersistenceError{Op: "count incomplete tickets", Err: err}
	}
	stats.Complete = stats.Total - stats.Incomplete

	return stats, nil
}
