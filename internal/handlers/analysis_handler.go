package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"triagent/internal/services"
)

// AnalysisHandler 分析运行处理器
type AnalysisHandler struct {
	pipeline        *services.Pipeline
	analysisService *services.AnalysisService
	logger          *logrus.Logger
}

// NewAnalysisHandler 创建分析处理器
func NewAnalysisHandler(pipeline *services.Pipeline, analysisService *services.AnalysisService, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		pipeline:        pipeline,
		analysisService: analysisService,
		logger:          logger,
	}
}

// AnalysisRequest 触发分析请求；ticket_ids 为空表示处理全部未完成工单
type AnalysisRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

// RunAnalysis 同步执行一次分析运行
// @Summary 触发分析运行
// @Description 同步执行 fetch-classify-summarize-persist 流水线并返回运行结果
// @Tags 分析
// @Accept json
// @Produce json
// @Param payload body AnalysisRequest false "可选的工单 ID 子集"
// @Success 200 {object} services.AnalysisRunDetail
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/analysis [post]
func (h *AnalysisHandler) RunAnalysis(c *gin.Context) {
	var req AnalysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid request body",
				Message: err.Error(),
			})
			return
		}
	}

	run, err := h.pipeline.Run(c.Request.Context(), req.TicketIDs)
	if err != nil {
		h.logger.Errorf("Analysis run failed: %v", err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Analysis run failed",
			Message: err.Error(),
		})
		return
	}

	detail, err := h.analysisService.GetRun(c.Request.Context(), run.ID)
	if err != nil {
		h.logger.Errorf("Failed to load analysis run %s: %v", run.ID, err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Failed to load analysis run",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetLatestAnalysis 获取最近一次分析运行
// @Summary 获取最近一次分析运行
// @Description 返回最新的运行记录及其全部工单分析
// @Tags 分析
// @Accept json
// @Produce json
// @Success 200 {object} services.AnalysisRunDetail
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/analysis/latest [get]
func (h *AnalysisHandler) GetLatestAnalysis(c *gin.Context) {
	detail, err := h.analysisService.GetLatestRun(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to get latest analysis: %v", err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Failed to get latest analysis",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetAnalysis 按 ID 获取分析运行
// @Summary 获取指定分析运行
// @Description 按运行 ID 返回运行记录及其全部工单分析
// @Tags 分析
// @Accept json
// @Produce json
// @Param id path string true "运行 ID"
// @Success 200 {object} services.AnalysisRunDetail
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/analysis/{id} [get]
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	detail, err := h.analysisService.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Errorf("Failed to get analysis %s: %v", c.Param("id"), err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Failed to get analysis",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// RegisterAnalysisRoutes 注册分析相关路由
func RegisterAnalysisRoutes(r *gin.RouterGroup, handler *AnalysisHandler) {
	analysis := r.Group("/analysis")
	{
		analysis.POST("", handler.RunAnalysis)
		analysis.GET("/latest", handler.GetLatestAnalysis)
		analysis.GET("/:id", handler.GetAnalysis)
	}
}
