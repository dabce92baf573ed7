package model

import "time"

// 周报审核状态
const (
	ReportStatusPending  = "pending"
	ReportStatusApproved = "approved"
	ReportStatusRejected = "rejected"
)

// WeeklyReport 周报表 — 对应 weekly_reports
// (student_id, week_start_date) 唯一：每名学生每周最多一份
type WeeklyReport struct {
	ReportID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                   json:"report_id"`
	StudentID     string    `gorm:"type:uuid;not null;uniqueIndex:uk_weekly_reports_student_week,priority:1" json:"student_id"`
	WeekID        string    `gorm:"type:uuid;not null"                                               json:"week_id"`
	WeekNumber    int       `gorm:"not null"                                                         json:"week_number"`
	WeekStartDate time.Time `gorm:"type:date;not null;uniqueIndex:uk_weekly_reports_student_week,priority:2" json:"week_start_date"`
	Title         string    `gorm:"type:varchar(200);not null"                                       json:"title"`
	Content       string    `gorm:"type:text;not null"                                               json:"content"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending'"                      json:"status"`
	SubmittedAt   time.Time `gorm:"not null"                                                         json:"submitted_at"`
	BaseModel

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (WeeklyReport) TableName() string { return "weekly_reports" }
