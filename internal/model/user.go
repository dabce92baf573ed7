package model

import "strings"

// 用户角色
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User 用户表 — 对应 users（实习生与管理员）
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	StudentID    string `gorm:"type:varchar(30);not null"                      json:"student_id"`
	FirstName    string `gorm:"type:varchar(100);not null"                     json:"first_name"`
	MiddleName   string `gorm:"type:varchar(100);not null;default:''"          json:"middle_name"`
	LastName     string `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// FullName 返回 "名 中间名首字母. 姓"，中间名为空时省略
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	if first := strings.TrimSpace(u.FirstName); first != "" {
		parts = append(parts, first)
	}
	if middle := strings.TrimSpace(u.MiddleName); middle != "" {
		r := []rune(middle)
		parts = append(parts, strings.ToUpper(string(r[0]))+".")
	}
	if last := strings.TrimSpace(u.LastName); last != "" {
		parts = append(parts, last)
	}
	return strings.Join(parts, " ")
}
