package model

import "time"

// SystemConfig 系统配置表 — 对应 system_config（单行强类型）
// 持久化周循环状态：LoopAnchorDate 非空当且仅当 WeeklyLoopActive 为 true
type SystemConfig struct {
	Singleton        bool       `gorm:"primaryKey;default:true" json:"-"`
	WeeklyLoopActive bool       `gorm:"not null;default:false"  json:"weekly_loop_active"`
	LoopAnchorDate   *time.Time `gorm:"type:date"               json:"loop_anchor_date,omitempty"`
	BaseModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }
