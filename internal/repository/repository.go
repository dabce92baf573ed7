package repository

import (
	"context"

	"gorm.io/gorm"
)

// DateLayout 日期列（date 类型）查询参数统一使用的格式
const DateLayout = "2006-01-02"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	SystemConfig SystemConfigRepository
	Week         WeekRepository
	WeeklyReport WeeklyReportRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		SystemConfig: NewSystemConfigRepo(db),
		Week:         NewWeekRepo(db),
		WeeklyReport: NewWeeklyReportRepo(db),
	}
}

// Ping 数据库健康检查
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
