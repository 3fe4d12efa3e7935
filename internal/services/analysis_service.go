package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"triagent/internal/models"
)

// AnalysisService 分析运行的查询服务
type AnalysisService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewAnalysisService(db *gorm.DB, logger *logrus.Logger) *AnalysisService {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisService{
		db:     db,
		logger: logger,
	}
}

// AnalysisRunDetail 运行详情：运行记录及其全部分析行（含工单）
type AnalysisRunDetail struct {
	models.AnalysisRun
	Analyses []models.TicketAnalysis `json:"ticket_analyses"`
}

// GetRun 按 ID 获取运行详情
func (s *AnalysisService) GetRun(ctx context.Context, runID string) (*AnalysisRunDetail, error) {
	var run models.AnalysisRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "analysis run", ID: runID}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load analysis run", Err: err}
	}
	return s.withAnalyses(ctx, run)
}

// GetLatestRun 获取最近一次运行详情；没有任何运行时返回 NotFoundError
func (s *AnalysisService) GetLatestRun(ctx context.Context) (*AnalysisRunDetail, error) {
	var run models.AnalysisRun
	err := s.db.WithContext(ctx).Order("created_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "analysis runs"}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load latest analysis run", Err: err}
	}
	return s.withAnalyses(ctx, run)
}

func (s *AnalysisService) withAnalyses(ctx context.Context, run models.AnalysisRun) (*AnalysisRunDetail, error) {
	var analyses []models.TicketAnalysis
	err := s.db.WithContext(ctx).
		Preload("Ticket").
		Where("analysis_run_id = ?", run.ID).
		Order("created_at ASC").
		Find(&analyses).Error
	if err != nil {
		return nil, &PersistenceError{Op: "load ticket analyses", Err: err}
	}

	return &AnalysisRunDetail{
		AnalysisRun: run,
		Analyses:    analyses,
	}, nil
}
