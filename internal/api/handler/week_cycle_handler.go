package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ojt-report/backend/internal/dto"
	"ojt-report/backend/internal/service"
	"ojt-report/backend/pkg/response"
)

// WeekCycleHandler 周循环模块 HTTP 处理器
type WeekCycleHandler struct {
	cycleSvc service.WeekCycleService
}

// NewWeekCycleHandler 创建 WeekCycleHandler
func NewWeekCycleHandler(cycleSvc service.WeekCycleService) *WeekCycleHandler {
	return &WeekCycleHandler{cycleSvc: cycleSvc}
}

// GetCycleView 周期视图：周窗口 × 学生提交状态
// GET /api/v1/week-cycle
func (h *WeekCycleHandler) GetCycleView(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	view, err := h.cycleSvc.GetCycleView(c.Request.Context(), userID, role)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, view)
}

// GetState 周循环状态
// GET /api/v1/week-cycle/state
func (h *WeekCycleHandler) GetState(c *gin.Context) {
	state, err := h.cycleSvc.GetLoopState(c.Request.Context())
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, state)
}

// ListWeeks 已创建的周次
// GET /api/v1/week-cycle/weeks
func (h *WeekCycleHandler) ListWeeks(c *gin.Context) {
	weeks, err := h.cycleSvc.ListWeeks(c.Request.Context())
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OK(c, weeks)
}

// Start 启动周循环
// POST /api/v1/week-cycle/start
func (h *WeekCycleHandler) Start(c *gin.Context) {
	var req dto.StartLoopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	state, err := h.cycleSvc.StartLoop(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OKWithMessage(c, "周循环已启动", state)
}

// Stop 停止周循环
// POST /api/v1/week-cycle/stop
func (h *WeekCycleHandler) Stop(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	state, err := h.cycleSvc.StopLoop(c.Request.Context(), callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OKWithMessage(c, "周循环已停止", state)
}

// Advance 管理员手动推进一周
// POST /api/v1/week-cycle/advance
func (h *WeekCycleHandler) Advance(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.cycleSvc.ForceAdvance(c.Request.Context(), callerID)
	if err != nil {
		h.handleCycleError(c, err)
		return
	}

	response.OKWithMessage(c, result.Message(), dto.AdvanceResponse{
		Outcome: string(result.Outcome),
		Week:    service.ToWeekResponse(result.Week),
	})
}

// handleCycleError 统一处理周循环模块业务错误
func (h *WeekCycleHandler) handleCycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLoopStateNotFound):
		response.NotFound(c, 17001, "系统配置未初始化")
	case errors.Is(err, service.ErrAnchorDateInvalid):
		response.BadRequest(c, 18001, "锚定日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrWeekNotFound):
		response.NotFound(c, 18002, "周次不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 18003, "学生不存在")
	default:
		response.InternalError(c)
	}
}
