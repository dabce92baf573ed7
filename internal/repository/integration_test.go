//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ojt-report/backend/internal/model"
	"ojt-report/backend/internal/repository"
	"ojt-report/backend/pkg/database"
	pkgerrors "ojt-report/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=ojt password=ojt_password dbname=ojt_report_test sslmode=disable TimeZone=Asia/Manila"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表，唯一约束与 CHECK 约束与生产一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func resetTables(t *testing.T) {
	t.Helper()
	if err := testDB.Exec("TRUNCATE weekly_reports, weeks, users CASCADE").Error; err != nil {
		t.Fatalf("清理数据失败: %v", err)
	}
	err := testDB.Exec("UPDATE system_config SET weekly_loop_active = FALSE, loop_anchor_date = NULL").Error
	if err != nil {
		t.Fatalf("重置系统配置失败: %v", err)
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newWeek(number int, start time.Time) *model.Week {
	return &model.Week{WeekNumber: number, WeekStartDate: start, WeekEndDate: start.AddDate(0, 0, 4)}
}

func createStudent(t *testing.T, repo *repository.Repository, studentID string) *model.User {
	t.Helper()
	u := &model.User{
		StudentID:    studentID,
		FirstName:    "Test",
		LastName:     studentID,
		Email:        studentID + "@example.com",
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleStudent,
		IsActive:     true,
	}
	if err := testDB.Create(u).Error; err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	return u
}

// ═══════════════════════════════════════════════════════════
// WeekRepository
// ═══════════════════════════════════════════════════════════

func TestWeekRepo_InsertAndLatest(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	latest, err := repo.Week.Latest(ctx)
	if err != nil || latest != nil {
		t.Fatalf("空表期望 (nil, nil)，实际 (%v, %v)", latest, err)
	}

	for i := 1; i <= 3; i++ {
		if err := repo.Week.Insert(ctx, newWeek(i, date(2025, 1, 6).AddDate(0, 0, 7*(i-1)))); err != nil {
			t.Fatalf("插入第 %d 周失败: %v", i, err)
		}
	}

	latest, err = repo.Week.Latest(ctx)
	if err != nil {
		t.Fatalf("查询最新周失败: %v", err)
	}
	if latest.WeekNumber != 3 || latest.WeekStartDate.Format(repository.DateLayout) != "2025-01-20" {
		t.Errorf("期望第 3 周 2025-01-20，实际 %d %s", latest.WeekNumber, latest.WeekStartDate)
	}

	found, err := repo.Week.FindByStartDate(ctx, date(2025, 1, 13))
	if err != nil || found == nil || found.WeekNumber != 2 {
		t.Errorf("按周一查找失败: %v %v", found, err)
	}
	missing, err := repo.Week.FindByStartDate(ctx, date(2025, 3, 3))
	if err != nil || missing != nil {
		t.Errorf("不存在时期望 (nil, nil)，实际 (%v, %v)", missing, err)
	}
}

func TestWeekRepo_UniqueConstraints(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.Week.Insert(ctx, newWeek(1, date(2025, 1, 6))); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	tests := []struct {
		name string
		week *model.Week
	}{
		{name: "周次号重复", week: newWeek(1, date(2025, 1, 13))},
		{name: "周一日期重复", week: newWeek(2, date(2025, 1, 6))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Week.Insert(ctx, tt.week)
			if !errors.Is(err, pkgerrors.ErrDuplicateKey) {
				t.Errorf("期望 ErrDuplicateKey，实际 %v", err)
			}
		})
	}
}

func TestWeekRepo_ShapeConstraints(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	notMonday := newWeek(1, date(2025, 1, 7))
	if err := repo.Week.Insert(ctx, notMonday); err == nil {
		t.Error("非周一开始的周次应被 CHECK 约束拒绝")
	}

	badEnd := &model.Week{WeekNumber: 1, WeekStartDate: date(2025, 1, 6), WeekEndDate: date(2025, 1, 12)}
	if err := repo.Week.Insert(ctx, badEnd); err == nil {
		t.Error("结束日不等于周一+4 应被 CHECK 约束拒绝")
	}
}

func TestWeekRepo_ConcurrentInsert(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dup    int
		unexpected []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Week.Insert(ctx, newWeek(1, date(2025, 1, 6)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, pkgerrors.ErrDuplicateKey):
				dup++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || dup != workers-1 || len(unexpected) > 0 {
		t.Errorf("期望 1 次成功 %d 次冲突，实际 成功=%d 冲突=%d 其他=%v", workers-1, ok, dup, unexpected)
	}
}

// ═══════════════════════════════════════════════════════════
// SystemConfigRepository
// ═══════════════════════════════════════════════════════════

func TestSystemConfigRepo_StartStop(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	cfg, err := repo.SystemConfig.Get(ctx)
	if err != nil {
		t.Fatalf("读取配置失败: %v", err)
	}
	if cfg.WeeklyLoopActive || cfg.LoopAnchorDate != nil {
		t.Fatalf("初始应为未启动，实际 %+v", cfg)
	}

	anchor := date(2025, 1, 6)
	cfg.WeeklyLoopActive = true
	cfg.LoopAnchorDate = &anchor
	if err := repo.SystemConfig.Update(ctx, cfg); err != nil {
		t.Fatalf("启动失败: %v", err)
	}

	cfg, _ = repo.SystemConfig.Get(ctx)
	if !cfg.WeeklyLoopActive || cfg.LoopAnchorDate == nil || cfg.LoopAnchorDate.Format(repository.DateLayout) != "2025-01-06" {
		t.Errorf("启动状态未持久化: %+v", cfg)
	}

	cfg.WeeklyLoopActive = false
	cfg.LoopAnchorDate = nil
	if err := repo.SystemConfig.Update(ctx, cfg); err != nil {
		t.Fatalf("停止失败: %v", err)
	}
	cfg, _ = repo.SystemConfig.Get(ctx)
	if cfg.WeeklyLoopActive || cfg.LoopAnchorDate != nil {
		t.Errorf("停止状态未持久化: %+v", cfg)
	}

	// active 但无锚点违反 CHECK 约束
	cfg.WeeklyLoopActive = true
	if err := repo.SystemConfig.Update(ctx, cfg); err == nil {
		t.Error("active 且锚点为空应被拒绝")
	}
}

// ═══════════════════════════════════════════════════════════
// WeeklyReportRepository
// ═══════════════════════════════════════════════════════════

func TestWeeklyReportRepo_SubmissionKeys(t *testing.T) {
	resetTables(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	stuA := createStudent(t, repo, "A-001")
	stuB := createStudent(t, repo, "B-002")
	w1 := newWeek(1, date(2025, 1, 6))
	w2 := newWeek(2, date(2025, 1, 13))
	for _, w := range []*model.Week{w1, w2} {
		if err := repo.Week.Insert(ctx, w); err != nil {
			t.Fatalf("插入周次失败: %v", err)
		}
	}

	submit := func(u *model.User, w *model.Week) error {
		return repo.WeeklyReport.Create(ctx, &model.WeeklyReport{
			StudentID:     u.UserID,
			WeekID:        w.WeekID,
			WeekNumber:    w.WeekNumber,
			WeekStartDate: w.WeekStartDate,
			Title:         "周报",
			Content:       "内容",
			Status:        model.ReportStatusPending,
			SubmittedAt:   time.Now(),
		})
	}

	if err := submit(stuA, w1); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if err := submit(stuB, w2); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if err := submit(stuA, w1); !errors.Is(err, pkgerrors.ErrDuplicateKey) {
		t.Errorf("重复提交期望 ErrDuplicateKey，实际 %v", err)
	}

	exists, err := repo.WeeklyReport.Exists(ctx, stuA.UserID, w1.WeekStartDate)
	if err != nil || !exists {
		t.Errorf("期望已提交，实际 %v %v", exists, err)
	}

	keys, err := repo.WeeklyReport.ListSubmissionKeys(ctx, date(2025, 1, 6), date(2025, 1, 6))
	if err != nil {
		t.Fatalf("查询提交键失败: %v", err)
	}
	if len(keys) != 1 || keys[0].StudentID != stuA.UserID {
		t.Errorf("区间过滤错误: %+v", keys)
	}

	list, total, err := repo.WeeklyReport.ListByWeek(ctx, w2.WeekStartDate, 0, 10)
	if err != nil {
		t.Fatalf("按周列出失败: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].Student == nil || list[0].Student.StudentID != "B-002" {
		t.Errorf("按周列出结果错误: total=%d list=%+v", total, list)
	}
}
