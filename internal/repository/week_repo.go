package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"ojt-report/backend/internal/model"
	pkgerrors "ojt-report/backend/pkg/errors"
)

// WeekRepository 周次数据访问接口（只追加）
//
// Insert 在 week_number 或 week_start_date 冲突时返回 pkgerrors.ErrDuplicateKey，
// 调用方据此判定"已存在"，不依赖事前查询。
type WeekRepository interface {
	Latest(ctx context.Context) (*model.Week, error)
	FindByStartDate(ctx context.Context, start time.Time) (*model.Week, error)
	GetByNumber(ctx context.Context, weekNumber int) (*model.Week, error)
	Insert(ctx context.Context, week *model.Week) error
	ListAll(ctx context.Context) ([]model.Week, error)
}

type weekRepo struct {
	db *gorm.DB
}

// NewWeekRepo 创建 WeekRepository 实例
func NewWeekRepo(db *gorm.DB) WeekRepository {
	return &weekRepo{db: db}
}

// Latest 返回 week_number 最大的周次；不存在时返回 (nil, nil)
func (r *weekRepo) Latest(ctx context.Context) (*model.Week, error) {
	var week model.Week
	err := r.db.WithContext(ctx).
		Order("week_number DESC").
		First(&week).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &week, nil
}

// FindByStartDate 按周一日期查找；不存在时返回 (nil, nil)
func (r *weekRepo) FindByStartDate(ctx context.Context, start time.Time) (*model.Week, error) {
	var week model.Week
	err := r.db.WithContext(ctx).
		Where("week_start_date = ?", start.Format(DateLayout)).
		First(&week).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &week, nil
}

func (r *weekRepo) GetByNumber(ctx context.Context, weekNumber int) (*model.Week, error) {
	var week model.Week
	err := r.db.WithContext(ctx).
		Where("week_number = ?", weekNumber).
		First(&week).Error
	if err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *weekRepo) Insert(ctx context.Context, week *model.Week) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(week).Error)
}

func (r *weekRepo) ListAll(ctx context.Context) ([]model.Week, error) {
	var weeks []model.Week
	err := r.db.WithContext(ctx).
		Order("week_number ASC").
		Find(&weeks).Error
	return weeks, err
}
