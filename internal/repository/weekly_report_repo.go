package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ojt-report/backend/internal/model"
	pkgerrors "ojt-report/backend/pkg/errors"
)

// SubmissionKey (学生, 周一日期) 提交记录键
type SubmissionKey struct {
	StudentID     string
	WeekStartDate time.Time
}

// WeeklyReportRepository 周报数据访问接口
type WeeklyReportRepository interface {
	Exists(ctx context.Context, studentID string, weekStart time.Time) (bool, error)
	Create(ctx context.Context, report *model.WeeklyReport) error
	ListByStudent(ctx context.Context, studentID string) ([]model.WeeklyReport, error)
	ListByWeek(ctx context.Context, weekStart time.Time, offset, limit int) ([]model.WeeklyReport, int64, error)
	ListSubmissionKeys(ctx context.Context, from, to time.Time) ([]SubmissionKey, error)
}

type weeklyReportRepo struct {
	db *gorm.DB
}

// NewWeeklyReportRepo 创建 WeeklyReportRepository 实例
func NewWeeklyReportRepo(db *gorm.DB) WeeklyReportRepository {
	return &weeklyReportRepo{db: db}
}

func (r *weeklyReportRepo) Exists(ctx context.Context, studentID string, weekStart time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WeeklyReport{}).
		Where("student_id = ? AND week_start_date = ?", studentID, weekStart.Format(DateLayout)).
		Count(&count).Error
	return count > 0, err
}

// Create 写入周报；(student_id, week_start_date) 冲突返回 pkgerrors.ErrDuplicateKey
func (r *weeklyReportRepo) Create(ctx context.Context, report *model.WeeklyReport) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(report).Error)
}

func (r *weeklyReportRepo) ListByStudent(ctx context.Context, studentID string) ([]model.WeeklyReport, error) {
	var reports []model.WeeklyReport
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("week_number ASC").
		Find(&reports).Error
	return reports, err
}

func (r *weeklyReportRepo) ListByWeek(ctx context.Context, weekStart time.Time, offset, limit int) ([]model.WeeklyReport, int64, error) {
	var (
		reports []model.WeeklyReport
		total   int64
	)

	scope := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&model.WeeklyReport{}).
			Where("week_start_date = ?", weekStart.Format(DateLayout))
	}

	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scope().
		Preload("Student").
		Order("submitted_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&reports).Error
	return reports, total, err
}

// ListSubmissionKeys 一次查出区间 [from, to] 内所有提交键，供周期视图批量标注
func (r *weeklyReportRepo) ListSubmissionKeys(ctx context.Context, from, to time.Time) ([]SubmissionKey, error) {
	var rows []struct {
		StudentID     string
		WeekStartDate time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&model.WeeklyReport{}).
		Select("student_id, week_start_date").
		Where("week_start_date BETWEEN ? AND ?", from.Format(DateLayout), to.Format(DateLayout)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make([]SubmissionKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, SubmissionKey{StudentID: row.StudentID, WeekStartDate: row.WeekStartDate})
	}
	return keys, nil
}
