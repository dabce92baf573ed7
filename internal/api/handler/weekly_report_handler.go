package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"ojt-report/backend/internal/dto"
	"ojt-report/backend/internal/service"
	"ojt-report/backend/pkg/response"
)

// WeeklyReportHandler 周报模块 HTTP 处理器
type WeeklyReportHandler struct {
	reportSvc service.WeeklyReportService
}

// NewWeeklyReportHandler 创建 WeeklyReportHandler
func NewWeeklyReportHandler(reportSvc service.WeeklyReportService) *WeeklyReportHandler {
	return &WeeklyReportHandler{reportSvc: reportSvc}
}

// Submit 学生提交周报
// POST /api/v1/weekly-reports
func (h *WeeklyReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitWeeklyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Submit(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Created(c, report)
}

// ListMine 我的周报
// GET /api/v1/weekly-reports/me
func (h *WeeklyReportHandler) ListMine(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reports, err := h.reportSvc.ListMine(c.Request.Context(), studentID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, reports)
}

// ListByWeek 按周列出周报（管理员）
// GET /api/v1/weekly-reports?week_number=
func (h *WeeklyReportHandler) ListByWeek(c *gin.Context) {
	var req dto.WeeklyReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	reports, total, err := h.reportSvc.ListByWeek(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OKPage(c, reports, total, req.GetPage(), req.GetPageSize())
}

// handleReportError 统一处理周报模块业务错误
func (h *WeeklyReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWeekLoopNotActive):
		response.BadRequest(c, 19001, "周循环未启动")
	case errors.Is(err, service.ErrWeekNotFound):
		response.NotFound(c, 18002, "周次不存在")
	case errors.Is(err, service.ErrReportAlreadySubmitted):
		response.Conflict(c, 19002, "该周周报已提交")
	case errors.Is(err, service.ErrSubmissionWindowNotOpen):
		response.BadRequest(c, 19003, "当前不在该周的提交时间内")
	case errors.Is(err, service.ErrSubmissionWindowClosed):
		response.BadRequest(c, 19004, "该周提交窗口已关闭")
	default:
		response.InternalError(c)
	}
}
