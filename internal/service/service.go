package service

import (
	"go.uber.org/zap"

	"ojt-report/backend/config"
	"ojt-report/backend/internal/repository"
	"ojt-report/backend/pkg/clock"
	"ojt-report/backend/pkg/jwt"
	"ojt-report/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	WeekCycle    WeekCycleService
	WeeklyReport WeeklyReportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	cycle := NewWeekCycleService(&cfg.Scheduler, repo, clk, m, logger)
	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		WeekCycle:    cycle,
		WeeklyReport: NewWeeklyReportService(repo, cycle, clk, logger),
	}
}
