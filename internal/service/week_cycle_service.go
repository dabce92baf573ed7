package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ojt-report/backend/config"
	"ojt-report/backend/internal/dto"
	"ojt-report/backend/internal/model"
	"ojt-report/backend/internal/repository"
	"ojt-report/backend/pkg/clock"
	pkgerrors "ojt-report/backend/pkg/errors"
	"ojt-report/backend/pkg/metrics"
)

// ── 周循环模块业务错误 ──

var (
	ErrWeekLoopNotActive = errors.New("周循环未启动")
	ErrLoopStateNotFound = errors.New("系统配置未初始化")
	ErrAnchorDateInvalid = errors.New("锚定日期格式无效，应为 YYYY-MM-DD")
	ErrWeekNotFound      = errors.New("周次不存在")
	ErrStudentNotFound   = errors.New("学生不存在")
)

// AdvanceOutcome 推进结果（预期分支用结果值表达，错误只留给存储故障）
type AdvanceOutcome string

const (
	AdvanceCreated        AdvanceOutcome = "created"
	AdvanceAlreadyPresent AdvanceOutcome = "already_present"
	AdvanceNotActive      AdvanceOutcome = "not_active"
	AdvanceNotDue         AdvanceOutcome = "not_due"
)

// AdvanceResult 推进结果；Week 为新建或已存在的目标周
type AdvanceResult struct {
	Outcome AdvanceOutcome
	Week    *WeekWindow
}

// Message 面向管理员的简短提示
func (r *AdvanceResult) Message() string {
	switch r.Outcome {
	case AdvanceCreated:
		return "已创建新的周次"
	case AdvanceAlreadyPresent:
		return "目标周次已存在，无需操作"
	case AdvanceNotActive:
		return "周循环未启动，未做任何操作"
	case AdvanceNotDue:
		return "下一周尚未开始，未做任何操作"
	default:
		return string(r.Outcome)
	}
}

// WeekCycleService 周循环业务接口
//
// 设计说明：
//   - LoopState 与 weeks 表是进程级共享状态，只能经由本服务修改
//   - AdvanceIfDue 由定时任务调用；ForceAdvance 由管理员调用，跳过"是否到期"判断
//   - 幂等性以数据库唯一约束为准：插入冲突即视为 already_present
type WeekCycleService interface {
	LoadLoopState(ctx context.Context) (LoopState, error)
	GetLoopState(ctx context.Context) (*dto.LoopStateResponse, error)
	StartLoop(ctx context.Context, req *dto.StartLoopRequest, callerID string) (*dto.LoopStateResponse, error)
	StopLoop(ctx context.Context, callerID string) (*dto.LoopStateResponse, error)
	AdvanceIfDue(ctx context.Context, now time.Time) (*AdvanceResult, error)
	ForceAdvance(ctx context.Context, callerID string) (*AdvanceResult, error)
	ListWeeks(ctx context.Context) ([]dto.WeekResponse, error)
	GetCycleView(ctx context.Context, viewerID, role string) (*dto.CycleViewResponse, error)
	Location() *time.Location
}

type weekCycleService struct {
	repo         *repository.Repository
	clock        clock.Clock
	loc          *time.Location
	displayWeeks int
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewWeekCycleService 创建 WeekCycleService 实例
func NewWeekCycleService(
	cfg *config.SchedulerConfig,
	repo *repository.Repository,
	clk clock.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) WeekCycleService {
	displayWeeks := cfg.DisplayWeeks
	if displayWeeks <= 0 {
		displayWeeks = 20
	}
	return &weekCycleService{
		repo:         repo,
		clock:        clk,
		loc:          cfg.Location(),
		displayWeeks: displayWeeks,
		metrics:      m,
		logger:       logger.Named("week_cycle"),
	}
}

func (s *weekCycleService) Location() *time.Location { return s.loc }

// ────────────────────── LoopState ──────────────────────

func (s *weekCycleService) loadConfig(ctx context.Context) (*model.SystemConfig, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoopStateNotFound
		}
		s.logger.Error("查询周循环状态失败", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

func loopStateFromConfig(cfg *model.SystemConfig) LoopState {
	state := LoopState{Active: cfg.WeeklyLoopActive}
	if cfg.WeeklyLoopActive && cfg.LoopAnchorDate != nil {
		anchor := dateOnly(*cfg.LoopAnchorDate)
		state.AnchorDate = &anchor
	}
	// 状态被外部改坏（active 但无锚点）时按未启动处理
	if state.Active && state.AnchorDate == nil {
		state.Active = false
	}
	return state
}

func (s *weekCycleService) LoadLoopState(ctx context.Context) (LoopState, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return LoopState{}, err
	}
	return loopStateFromConfig(cfg), nil
}

func (s *weekCycleService) GetLoopState(ctx context.Context) (*dto.LoopStateResponse, error) {
	state, err := s.LoadLoopState(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.Week.Latest(ctx)
	if err != nil {
		s.logger.Error("查询最新周次失败", zap.Error(err))
		return nil, err
	}

	resp := s.toLoopStateResponse(state)
	if latest != nil {
		w := weekWindowFromModel(latest)
		resp.LatestWeek = ToWeekResponse(&w)
	}
	return resp, nil
}

// ────────────────────── StartLoop ──────────────────────

// StartLoop 启动（或以新锚点重启）周循环，不创建任何周次
func (s *weekCycleService) StartLoop(ctx context.Context, req *dto.StartLoopRequest, callerID string) (*dto.LoopStateResponse, error) {
	anchor, err := time.Parse(repository.DateLayout, req.AnchorDate)
	if err != nil {
		return nil, ErrAnchorDateInvalid
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	restarted := cfg.WeeklyLoopActive
	cfg.WeeklyLoopActive = true
	cfg.LoopAnchorDate = &anchor
	cfg.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("保存周循环状态失败", zap.Error(err))
		return nil, err
	}
	s.metrics.SetLoopActive(true)

	s.logger.Info("周循环已启动",
		zap.String("anchor_date", req.AnchorDate),
		zap.Bool("restarted", restarted),
		zap.String("operator", callerID),
	)

	return s.toLoopStateResponse(loopStateFromConfig(cfg)), nil
}

// ────────────────────── StopLoop ──────────────────────

// StopLoop 停止周循环；已创建的周次全部保留
func (s *weekCycleService) StopLoop(ctx context.Context, callerID string) (*dto.LoopStateResponse, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg.WeeklyLoopActive = false
	cfg.LoopAnchorDate = nil
	cfg.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("保存周循环状态失败", zap.Error(err))
		return nil, err
	}
	s.metrics.SetLoopActive(false)

	s.logger.Info("周循环已停止", zap.String("operator", callerID))

	return s.toLoopStateResponse(loopStateFromConfig(cfg)), nil
}

// ────────────────────── Advance ──────────────────────

func (s *weekCycleService) AdvanceIfDue(ctx context.Context, now time.Time) (*AdvanceResult, error) {
	result, err := s.advance(ctx, now, false, nil)
	s.observe(metrics.TriggerCron, result, err)
	return result, err
}

func (s *weekCycleService) ForceAdvance(ctx context.Context, callerID string) (*AdvanceResult, error) {
	result, err := s.advance(ctx, s.clock.Now(), true, &callerID)
	s.observe(metrics.TriggerAdmin, result, err)
	return result, err
}

// advance 计算下一周并幂等创建。
//
//  1. 未启动 → not_active
//  2. 候选周 = 最新周的下一周；库中无周次时为锚定周（第 1 周）；
//     重启后锚点晚于候选周一时，候选周改为锚点所在周（周次号延续）
//  3. 非强制：最新周已覆盖 now 所在周 → already_present；
//     否则逐周补齐直到 now 所在周，候选周一晚于今天即停止（一周都没补上 → not_due）
//  4. 强制：只创建一个候选周，且候选周一最多比 now 所在周一晚一周，否则 not_due
//  5. 候选周一已存在或插入唯一约束冲突 → 视为已存在，继续向后推
func (s *weekCycleService) advance(ctx context.Context, now time.Time, force bool, callerID *string) (*AdvanceResult, error) {
	state, err := s.LoadLoopState(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Active {
		s.logger.Info("周循环未启动，跳过推进")
		return &AdvanceResult{Outcome: AdvanceNotActive}, nil
	}

	latest, err := s.repo.Week.Latest(ctx)
	if err != nil {
		s.logger.Error("查询最新周次失败", zap.Error(err))
		return nil, err
	}

	anchorMonday := MondayOnOrAfter(*state.AnchorDate)
	today := CivilDate(now, s.loc)
	currentMonday := MondayOnOrBefore(today)

	var last *WeekWindow
	if latest != nil {
		w := weekWindowFromModel(latest)
		last = &w
	}

	if force {
		candidate := nextCandidate(last, anchorMonday)
		if candidate.StartDate.After(currentMonday.AddDate(0, 0, 7)) {
			return &AdvanceResult{Outcome: AdvanceNotDue}, nil
		}
		w, created, err := s.ensureWeek(ctx, candidate, callerID)
		if err != nil {
			return nil, err
		}
		return advanceResult(w, created), nil
	}

	if last != nil && !last.StartDate.Before(currentMonday) {
		return &AdvanceResult{Outcome: AdvanceAlreadyPresent, Week: last}, nil
	}

	var (
		touched    bool
		createdAny bool
	)
	for last == nil || last.StartDate.Before(currentMonday) {
		candidate := nextCandidate(last, anchorMonday)
		if candidate.StartDate.After(today) {
			break
		}
		w, created, err := s.ensureWeek(ctx, candidate, callerID)
		if err != nil {
			return nil, err
		}
		touched = true
		createdAny = createdAny || created
		last = &w
	}

	if !touched {
		return &AdvanceResult{Outcome: AdvanceNotDue}, nil
	}
	return advanceResult(*last, createdAny), nil
}

// nextCandidate 最新周之后应创建的周；last 为 nil 表示库中无周次
func nextCandidate(last *WeekWindow, anchorMonday time.Time) WeekWindow {
	if last == nil {
		return NewWeekWindow(1, anchorMonday)
	}
	candidate := NextWindowAfter(*last)
	if anchorMonday.After(candidate.StartDate) {
		candidate = NewWeekWindow(last.WeekNumber+1, anchorMonday)
	}
	return candidate
}

func advanceResult(w WeekWindow, created bool) *AdvanceResult {
	if created {
		return &AdvanceResult{Outcome: AdvanceCreated, Week: &w}
	}
	return &AdvanceResult{Outcome: AdvanceAlreadyPresent, Week: &w}
}

// ensureWeek 幂等写入一个周次；已存在时返回库中的那一周，created 为 false
func (s *weekCycleService) ensureWeek(ctx context.Context, candidate WeekWindow, callerID *string) (WeekWindow, bool, error) {
	existing, err := s.repo.Week.FindByStartDate(ctx, candidate.StartDate)
	if err != nil {
		s.logger.Error("按周一日期查询周次失败", zap.Error(err))
		return WeekWindow{}, false, err
	}
	if existing != nil {
		return weekWindowFromModel(existing), false, nil
	}

	week := weekModelFromWindow(candidate)
	week.CreatedBy = callerID
	if err := s.repo.Week.Insert(ctx, week); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			s.logger.Info("并发推进命中唯一约束，视为已存在",
				zap.Int("week_number", candidate.WeekNumber),
				zap.String("start_date", candidate.StartDate.Format(repository.DateLayout)),
			)
			return candidate, false, nil
		}
		s.logger.Error("创建周次失败", zap.Int("week_number", candidate.WeekNumber), zap.Error(err))
		return WeekWindow{}, false, err
	}

	s.logger.Info("已创建周次",
		zap.Int("week_number", candidate.WeekNumber),
		zap.String("start_date", candidate.StartDate.Format(repository.DateLayout)),
		zap.String("end_date", candidate.EndDate.Format(repository.DateLayout)),
		zap.Bool("forced", callerID != nil),
	)
	return candidate, true, nil
}

func (s *weekCycleService) observe(trigger string, result *AdvanceResult, err error) {
	if err != nil {
		s.metrics.ObserveAdvance(trigger, "error")
		return
	}
	s.metrics.ObserveAdvance(trigger, string(result.Outcome))
}

// ────────────────────── ListWeeks ──────────────────────

func (s *weekCycleService) ListWeeks(ctx context.Context) ([]dto.WeekResponse, error) {
	weeks, err := s.repo.Week.ListAll(ctx)
	if err != nil {
		s.logger.Error("列出周次失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.WeekResponse, 0, len(weeks))
	for i := range weeks {
		w := weekWindowFromModel(&weeks[i])
		result = append(result, *ToWeekResponse(&w))
	}
	return result, nil
}

// ────────────────────── GetCycleView ──────────────────────

// GetCycleView 生成周期视图：锚点起 displayWeeks 个周窗口 × 学生提交状态，周次号与库中一致。
// 管理员看到全部在岗学生，学生只看到自己。
func (s *weekCycleService) GetCycleView(ctx context.Context, viewerID, role string) (*dto.CycleViewResponse, error) {
	state, err := s.LoadLoopState(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resp := &dto.CycleViewResponse{
		Active:   state.Active,
		Now:      now.In(s.loc).Format(time.RFC3339),
		Timezone: s.loc.String(),
		Weeks:    []dto.CycleWeekResponse{},
	}
	if !state.Active {
		return resp, nil
	}
	anchor := state.AnchorDate.Format(repository.DateLayout)
	resp.AnchorDate = &anchor

	students, err := s.viewStudents(ctx, viewerID, role)
	if err != nil {
		return nil, err
	}

	windows := GenerateWindows(*state.AnchorDate, s.displayWeeks)
	if err := s.alignWeekNumbers(ctx, windows); err != nil {
		return nil, err
	}
	submitted, err := s.submissionSet(ctx, windows)
	if err != nil {
		return nil, err
	}

	for i := range windows {
		w := windows[i]
		probe := ComputeSubmissionStatus(w, now, false, s.loc)
		week := dto.CycleWeekResponse{
			WeekResponse: *ToWeekResponse(&w),
			OpensAt:      probe.OpensAt.Format(time.RFC3339),
			ClosesAt:     probe.ClosesAt.Format(time.RFC3339),
			FinalCutoff:  probe.FinalCutoff.Format(time.RFC3339),
			Students:     make([]dto.SubmissionStatusResponse, 0, len(students)),
		}
		for j := range students {
			_, has := submitted[submissionKey(students[j].UserID, w.StartDate)]
			st := ComputeSubmissionStatus(w, now, has, s.loc)
			week.Students = append(week.Students, dto.SubmissionStatusResponse{
				StudentID:    students[j].UserID,
				FullName:     students[j].FullName(),
				Submitted:    st.Submitted,
				EligibleNow:  st.EligibleNow,
				WindowClosed: st.WindowClosed,
			})
		}
		resp.Weeks = append(resp.Weeks, week)
	}

	return resp, nil
}

// alignWeekNumbers 把视图中的周次号对齐到库中的编号。
// 重启后周次号延续历史而非从 1 开始，学生按视图里的周次号提交时必须命中同一周：
// 已落库的周取库中编号；未落库的周按推进规则预测（前一周 + 1，首周为其之前最大的已存编号 + 1）。
func (s *weekCycleService) alignWeekNumbers(ctx context.Context, windows []WeekWindow) error {
	if len(windows) == 0 {
		return nil
	}

	stored, err := s.repo.Week.ListAll(ctx)
	if err != nil {
		s.logger.Error("列出周次失败", zap.Error(err))
		return err
	}

	byStart := make(map[string]int, len(stored))
	before := 0
	for i := range stored {
		start := dateOnly(stored[i].WeekStartDate)
		byStart[start.Format(repository.DateLayout)] = stored[i].WeekNumber
		if start.Before(windows[0].StartDate) && stored[i].WeekNumber > before {
			before = stored[i].WeekNumber
		}
	}

	for i := range windows {
		if n, ok := byStart[windows[i].StartDate.Format(repository.DateLayout)]; ok {
			windows[i].WeekNumber = n
			continue
		}
		if i == 0 {
			windows[i].WeekNumber = before + 1
		} else {
			windows[i].WeekNumber = windows[i-1].WeekNumber + 1
		}
	}
	return nil
}

func (s *weekCycleService) viewStudents(ctx context.Context, viewerID, role string) ([]model.User, error) {
	if role == model.RoleAdmin {
		students, err := s.repo.User.ListActiveStudents(ctx)
		if err != nil {
			s.logger.Error("列出学生失败", zap.Error(err))
			return nil, err
		}
		return students, nil
	}

	user, err := s.repo.User.GetByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", viewerID), zap.Error(err))
		return nil, err
	}
	return []model.User{*user}, nil
}

func (s *weekCycleService) submissionSet(ctx context.Context, windows []WeekWindow) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	if len(windows) == 0 {
		return set, nil
	}

	keys, err := s.repo.WeeklyReport.ListSubmissionKeys(ctx, windows[0].StartDate, windows[len(windows)-1].StartDate)
	if err != nil {
		s.logger.Error("查询提交记录失败", zap.Error(err))
		return nil, err
	}
	for _, k := range keys {
		set[submissionKey(k.StudentID, k.WeekStartDate)] = struct{}{}
	}
	return set, nil
}

func submissionKey(studentID string, weekStart time.Time) string {
	return studentID + "|" + weekStart.Format(repository.DateLayout)
}

// ── 内部辅助方法 ──

func (s *weekCycleService) toLoopStateResponse(state LoopState) *dto.LoopStateResponse {
	resp := &dto.LoopStateResponse{
		Active:   state.Active,
		Timezone: s.loc.String(),
	}
	if state.AnchorDate != nil {
		anchor := state.AnchorDate.Format(repository.DateLayout)
		resp.AnchorDate = &anchor
	}
	return resp
}

// ToWeekResponse 周窗口转响应；w 为 nil 时返回 nil
func ToWeekResponse(w *WeekWindow) *dto.WeekResponse {
	if w == nil {
		return nil
	}
	return &dto.WeekResponse{
		WeekNumber: w.WeekNumber,
		StartDate:  w.StartDate.Format(repository.DateLayout),
		EndDate:    w.EndDate.Format(repository.DateLayout),
	}
}
