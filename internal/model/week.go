package model

import "time"

// Week 周次表 — 对应 weeks（只追加，创建后不修改、不删除）
type Week struct {
	WeekID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"week_id"`
	WeekNumber    int       `gorm:"not null;uniqueIndex:uk_weeks_number"           json:"week_number"`
	WeekStartDate time.Time `gorm:"type:date;not null;uniqueIndex:uk_weeks_start"  json:"week_start_date"` // 周一
	WeekEndDate   time.Time `gorm:"type:date;not null"                             json:"week_end_date"`   // 周五
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy     *string   `gorm:"type:uuid"                                      json:"created_by,omitempty"`
}

// TableName 指定表名
func (Week) TableName() string { return "weeks" }
