package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ojt-report/backend/config"
	"ojt-report/backend/internal/service"
	"ojt-report/backend/pkg/clock"
	"ojt-report/backend/pkg/logger"
)

// defaultRunTimeout 单次推进的超时；超时后等待下一次触发重试
const defaultRunTimeout = 30 * time.Second

// Advancer 定时任务驱动的推进操作；由 service.WeekCycleService 实现
type Advancer interface {
	AdvanceIfDue(ctx context.Context, now time.Time) (*service.AdvanceResult, error)
}

// WeekCycleCron 周循环定时触发器
//
// 按 scheduler.cron 在 scheduler.timezone 下触发 AdvanceIfDue。
// 上一次仍在执行时跳过本次触发；失败只记日志，不在进程内重试。
type WeekCycleCron struct {
	cron     *cron.Cron
	advancer Advancer
	clock    clock.Clock
	loc      *time.Location
	timeout  time.Duration
	logger   *zap.Logger

	entryID  cron.EntryID
	stopOnce sync.Once
}

// NewWeekCycleCron 创建触发器并注册任务；cron 表达式非法时返回错误
func NewWeekCycleCron(cfg *config.SchedulerConfig, advancer Advancer, clk clock.Clock, log *zap.Logger) (*WeekCycleCron, error) {
	log = log.Named("week_cycle_cron")
	cronLogger := logger.NewCronLogger(log)

	c := cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	w := &WeekCycleCron{
		cron:     c,
		advancer: advancer,
		clock:    clk,
		loc:      cfg.Location(),
		timeout:  defaultRunTimeout,
		logger:   log,
	}

	id, err := c.AddFunc(cfg.Cron, func() { w.RunOnce(context.Background()) })
	if err != nil {
		return nil, fmt.Errorf("注册周循环定时任务失败: %w", err)
	}
	w.entryID = id

	return w, nil
}

// Start 启动调度（非阻塞）
func (w *WeekCycleCron) Start() {
	w.cron.Start()
	w.logger.Info("周循环定时任务已启动", zap.Time("next_run", w.NextRun()))
}

// Stop 停止调度并等待正在执行的任务结束；可重复调用
func (w *WeekCycleCron) Stop(ctx context.Context) {
	w.stopOnce.Do(func() {
		done := w.cron.Stop()
		select {
		case <-done.Done():
			w.logger.Info("周循环定时任务已停止")
		case <-ctx.Done():
			w.logger.Warn("等待周循环任务结束超时", zap.Error(ctx.Err()))
		}
	})
}

// NextRun 按调度时区计算的下一次触发时间
func (w *WeekCycleCron) NextRun() time.Time {
	entry := w.cron.Entry(w.entryID)
	if entry.Schedule == nil {
		return time.Time{}
	}
	return entry.Schedule.Next(w.clock.Now().In(w.loc))
}

// RunOnce 执行一次推进，并记录结果
func (w *WeekCycleCron) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	now := w.clock.Now()
	result, err := w.advancer.AdvanceIfDue(ctx, now)
	if err != nil {
		w.logger.Error("周循环推进失败，等待下次触发", zap.Time("now", now), zap.Error(err))
		return
	}

	fields := []zap.Field{zap.String("outcome", string(result.Outcome))}
	if result.Week != nil {
		fields = append(fields,
			zap.Int("week_number", result.Week.WeekNumber),
			zap.Time("start_date", result.Week.StartDate),
		)
	}
	w.logger.Info("周循环推进完成", fields...)
}
