package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"triagent/internal/services"
)

// TicketHandler 工单处理器
type TicketHandler struct {
	ticketService *services.TicketService
	logger        *logrus.Logger
}

// NewTicketHandler 创建工单处理器
func NewTicketHandler(ticketService *services.TicketService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// CreateTickets 批量创建工单
// @Summary 批量创建工单
// @Description 一次请求创建多个工单，全部成功或全部失败
// @Tags 工单
// @Accept json
// @Produce json
// @Param payload body services.TicketBatchCreateRequest true "工单列表"
// @Success 201 {array} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/tickets [post]
func (h *TicketHandler) CreateTickets(c *gin.Context) {
	var req services.TicketBatchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	tickets, err := h.ticketService.CreateTickets(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorf("Failed to create tickets: %v", err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Failed to create tickets",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, tickets)
}

// ListTickets 获取工单列表
// @Summary 获取工单列表
// @Description 列出全部工单，每条附带最近一次分析的 category/priority/notes
// @Tags 工单
// @Accept json
// @Produce json
// @Success 200 {array} services.TicketView
// @Failure 500 {object} ErrorResponse
// @Router /api/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	tickets, err := h.ticketService.ListTickets(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to list tickets: %v", err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Failed to list tickets",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// GetTicketStats 获取工单统计
// @Summary 获取工单统计
// @Description 按状态统计工单数量
// @Tags 工单
// @Accept json
// @Produce json
// @Success 200 {object} services.TicketStats
// @Failure 500 {object} ErrorResponse
// @Router /api/tickets/stats [get]
func (h *TicketHandler) GetTicketStats(c *gin.Context) {
	stats, err := h.ticketService.GetTicketStats(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to get ticket stats: %v", err)
		c.JSON(statusForError(err), ErrorResponse{
			Error:   "Failed to get ticket statistics",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RegisterTicketRoutes 注册工单相关路由
func RegisterTicketRoutes(r *gin.RouterGroup, handler *TicketHandler) {
	tickets := r.Group("/tickets")
	{
		tickets.POST("", handler.CreateTickets)
		tickets.GET("", handler.ListTickets)
		tickets.GET("/stats", handler.GetTicketStats)
	}
}
