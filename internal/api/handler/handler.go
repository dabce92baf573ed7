package handler

import "ojt-report/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	WeekCycle    *WeekCycleHandler
	WeeklyReport *WeeklyReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		WeekCycle:    NewWeekCycleHandler(svc.WeekCycle),
		WeeklyReport: NewWeeklyReportHandler(svc.WeeklyReport),
	}
}
