package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"triagent/internal/models"
)

// PlaceholderSummary 运行开始时写入的占位摘要。
// 一次运行只有成功收尾才会覆盖它，调用方据此识别失败/未完成的运行。
const PlaceholderSummary = "Analysis in progress..."

// 流水线阶段，严格线性，无环
const (
	StageCreated    = "created"
	StageFetched    = "fetched"
	StageClassified = "classified"
	StageSummarized = "summarized"
	StagePersisted  = "persisted"
)

// Pipeline 分析流水线编排器：fetch → classify → summarize → persist。
// classify/summarize 的提供方错误就地回退、永不致命；
// fetch/persist 错误包装为 PipelineError 上抛。
type Pipeline struct {
	db      *gorm.DB
	gateway *Gateway
	logger  *logrus.Logger
}

func NewPipeline(db *gorm.DB, gateway *Gateway, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		db:      db,
		gateway: gateway,
		logger:  logger,
	}
}

// Run 执行一次完整的分析运行。ticketIDs 非空时只取给定子集，
// 无论如何只拉取 status=incomplete 的工单。
func (p *Pipeline) Run(ctx context.Context, ticketIDs []string) (*models.AnalysisRun, error) {
	tracer := otel.Tracer("triagent/pipeline")
	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()

	// CREATED：落一条带占位摘要的运行记录
	run := &models.AnalysisRun{Summary: PlaceholderSummary}
	if err := p.db.WithContext(ctx).Create(run).Error; err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &PipelineError{Stage: StageCreated, Err: &PersistenceError{Op: "create analysis run", Err: err}}
	}
	span.SetAttributes(attribute.String("run_id", run.ID))
	p.logger.Infof("Starting analysis run %s", run.ID)

	// FETCHED
	tickets, err := p.fetchTickets(ctx, ticketIDs)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &PipelineError{Stage: StageFetched, Err: &PersistenceError{Op: "fetch tickets", Err: err}}
	}
	p.logger.Infof("Fetched %d tickets for processing", len(tickets))

	// CLASSIFIED：逐工单 LLM 分类，单票失败回退关键词分类，本阶段永不失败
	results := p.gateway.ClassifyBatch(ctx, tickets)

	// SUMMARIZED：LLM 摘要失败退到确定性聚合；空批次直接走聚合
	var summary string
	if len(tickets) == 0 {
		summary = BuildSummary(tickets, results)
	} else if summary, err = p.gateway.SummarizeBatch(ctx, tickets); err != nil {
		p.logger.Warnf("LLM summary failed for run %s, falling back to deterministic summary: %v", run.ID, err)
		summary = BuildSummary(tickets, results)
	}

	// PERSISTED：单事务写入分析行、工单状态与运行摘要
	if err := p.persist(ctx, run.ID, tickets, results, summary); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &PipelineError{Stage: StagePersisted, Err: err}
	}

	if err := p.db.WithContext(ctx).First(run, "id = ?", run.ID).Error; err != nil {
		return nil, &PipelineError{Stage: StagePersisted, Err: &PersistenceError{Op: "reload analysis run", Err: err}}
	}

	p.logger.Infof("Analysis run %s completed: %d tickets", run.ID, len(tickets))
	return run, nil
}

func (p *Pipeline) fetchTickets(ctx context.Context, ticketIDs []string) ([]models.Ticket, error) {
	query := p.db.WithContext(ctx).Where("status = ?", models.TicketStatusIncomplete)
	if len(ticketIDs) > 0 {
		query = query.Where("id IN ?", ticketIDs)
	}

	var tickets []models.Ticket
	if err := query.Order("created_at ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// persist 原子提交：每个 (ticket, result) 一条分析行，工单置为 complete，
// 覆盖运行摘要。任何失败整体回滚，运行记录保持占位摘要。
func (p *Pipeline) persist(ctx context.Context, runID string, tickets []models.Ticket, results []*models.Classification, summary string) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tickets {
			if i >= len(results) || results[i] == nil {
				// 没有分类结果的工单保持 incomplete，不进入本批次
				p.logger.Warnf("Ticket %s has no classification result, leaving incomplete", tickets[i].ID)
				continue
			}
			result := results[i]

			analysis := &models.TicketAnalysis{
				AnalysisRunID: runID,
				TicketID:      tickets[i].ID,
				Category:      result.Category,
				Priority:      result.Priority,
				Notes:         result.Notes,
			}
			if err := tx.Create(analysis).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Ticket{}).
				Where("id = ?", tickets[i].ID).
				Update("status", models.TicketStatusComplete).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.AnalysisRun{}).
			Where("id = ?", runID).
			Update("summary", summary).Error
	})
	if err != nil {
		return &PersistenceError{Op: "commit analysis results", Err: err}
	}
	return nil
}
