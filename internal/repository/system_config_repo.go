package repository

import (
	"context"

	"gorm.io/gorm"

	"ojt-report/backend/internal/model"
)

// SystemConfigRepository 系统配置（含周循环状态）数据访问接口
type SystemConfigRepository interface {
	Get(ctx context.Context) (*model.SystemConfig, error)
	Update(ctx context.Context, cfg *model.SystemConfig) error
}

type systemConfigRepo struct {
	db *gorm.DB
}

// NewSystemConfigRepo 创建 SystemConfigRepository 实例
func NewSystemConfigRepo(db *gorm.DB) SystemConfigRepository {
	return &systemConfigRepo{db: db}
}

func (r *systemConfigRepo) Get(ctx context.Context) (*model.SystemConfig, error) {
	var cfg model.SystemConfig
	err := r.db.WithContext(ctx).
		Where("singleton = ?", true).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update 单行保存；显式 Select 列保证 false / NULL 也会写入
func (r *systemConfigRepo) Update(ctx context.Context, cfg *model.SystemConfig) error {
	cfg.Singleton = true
	return r.db.WithContext(ctx).
		Model(cfg).
		Select("weekly_loop_active", "loop_anchor_date", "updated_by", "updated_at").
		Where("singleton = ?", true).
		Updates(cfg).Error
}
