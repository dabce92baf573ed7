package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ojt-report/backend/internal/dto"
	"ojt-report/backend/internal/model"
	"ojt-report/backend/internal/repository"
	"ojt-report/backend/pkg/clock"
	pkgerrors "ojt-report/backend/pkg/errors"
)

// ── 周报模块业务错误 ──

var (
	ErrReportAlreadySubmitted  = errors.New("该周周报已提交")
	ErrSubmissionWindowNotOpen = errors.New("当前不在该周的提交时间内（仅限周五之后的周六）")
	ErrSubmissionWindowClosed  = errors.New("该周提交窗口已关闭")
)

// WeeklyReportService 周报业务接口
//
// 只负责与周窗口相关的提交与查询；审核、归档等 CRUD 不在此处
type WeeklyReportService interface {
	Submit(ctx context.Context, studentID string, req *dto.SubmitWeeklyReportRequest) (*dto.WeeklyReportResponse, error)
	ListMine(ctx context.Context, studentID string) ([]dto.WeeklyReportResponse, error)
	ListByWeek(ctx context.Context, req *dto.WeeklyReportListRequest) ([]dto.WeeklyReportResponse, int64, error)
}

type weeklyReportService struct {
	repo   *repository.Repository
	cycle  WeekCycleService
	clock  clock.Clock
	logger *zap.Logger
}

// NewWeeklyReportService 创建 WeeklyReportService 实例
func NewWeeklyReportService(
	repo *repository.Repository,
	cycle WeekCycleService,
	clk clock.Clock,
	logger *zap.Logger,
) WeeklyReportService {
	return &weeklyReportService{repo: repo, cycle: cycle, clock: clk, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *weeklyReportService) Submit(ctx context.Context, studentID string, req *dto.SubmitWeeklyReportRequest) (*dto.WeeklyReportResponse, error) {
	// 1. 周循环必须在运行
	state, err := s.cycle.LoadLoopState(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Active {
		return nil, ErrWeekLoopNotActive
	}

	// 2. 目标周必须已创建
	week, err := s.repo.Week.GetByNumber(ctx, req.WeekNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWeekNotFound
		}
		s.logger.Error("查询周次失败", zap.Int("week_number", req.WeekNumber), zap.Error(err))
		return nil, err
	}
	window := weekWindowFromModel(week)

	// 3. 提交窗口判断
	exists, err := s.repo.WeeklyReport.Exists(ctx, studentID, window.StartDate)
	if err != nil {
		s.logger.Error("查询周报提交记录失败", zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	status := ComputeSubmissionStatus(window, now, exists, s.cycle.Location())
	switch {
	case status.Submitted:
		return nil, ErrReportAlreadySubmitted
	case status.WindowClosed:
		return nil, ErrSubmissionWindowClosed
	case !status.EligibleNow:
		return nil, ErrSubmissionWindowNotOpen
	}

	// 4. 写入；并发重复提交由唯一约束兜底
	report := &model.WeeklyReport{
		StudentID:     studentID,
		WeekID:        week.WeekID,
		WeekNumber:    window.WeekNumber,
		WeekStartDate: window.StartDate,
		Title:         req.Title,
		Content:       req.Content,
		Status:        model.ReportStatusPending,
		SubmittedAt:   now,
	}
	report.CreatedBy = &studentID
	report.UpdatedBy = &studentID

	if err := s.repo.WeeklyReport.Create(ctx, report); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrReportAlreadySubmitted
		}
		s.logger.Error("创建周报失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	return toWeeklyReportResponse(report, nil), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *weeklyReportService) ListMine(ctx context.Context, studentID string) ([]dto.WeeklyReportResponse, error) {
	reports, err := s.repo.WeeklyReport.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("列出周报失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.WeeklyReportResponse, 0, len(reports))
	for i := range reports {
		result = append(result, *toWeeklyReportResponse(&reports[i], nil))
	}
	return result, nil
}

// ────────────────────── ListByWeek ──────────────────────

func (s *weeklyReportService) ListByWeek(ctx context.Context, req *dto.WeeklyReportListRequest) ([]dto.WeeklyReportResponse, int64, error) {
	week, err := s.repo.Week.GetByNumber(ctx, req.WeekNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrWeekNotFound
		}
		s.logger.Error("查询周次失败", zap.Int("week_number", req.WeekNumber), zap.Error(err))
		return nil, 0, err
	}

	reports, total, err := s.repo.WeeklyReport.ListByWeek(ctx, dateOnly(week.WeekStartDate), req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("按周列出周报失败", zap.Int("week_number", req.WeekNumber), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.WeeklyReportResponse, 0, len(reports))
	for i := range reports {
		result = append(result, *toWeeklyReportResponse(&reports[i], reports[i].Student))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func toWeeklyReportResponse(r *model.WeeklyReport, student *model.User) *dto.WeeklyReportResponse {
	resp := &dto.WeeklyReportResponse{
		ID:            r.ReportID,
		StudentID:     r.StudentID,
		WeekNumber:    r.WeekNumber,
		WeekStartDate: r.WeekStartDate.Format(repository.DateLayout),
		Title:         r.Title,
		Content:       r.Content,
		Status:        r.Status,
		SubmittedAt:   r.SubmittedAt.Format(time.RFC3339),
	}
	if student != nil {
		resp.StudentName = student.FullName()
	}
	return resp
}
