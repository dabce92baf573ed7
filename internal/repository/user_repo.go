package repository

import (
	"context"

	"gorm.io/gorm"

	"ojt-report/backend/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByStudentID(ctx context.Context, studentID string) (*model.User, error)
	ListActiveStudents(ctx context.Context) ([]model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND is_active = ?", studentID, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListActiveStudents 列出所有在岗实习生，按姓、名排序
func (r *userRepo) ListActiveStudents(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", model.RoleStudent, true).
		Order("last_name ASC, first_name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Find(&users).Error
	return users, err
}
