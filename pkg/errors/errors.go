package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicateKey 唯一约束冲突：记录已存在
var ErrDuplicateKey = errors.New("记录已存在")

// TranslateDuplicate 将 GORM 翻译后的唯一约束错误统一为 ErrDuplicateKey，其余错误原样返回。
// 需要 gorm.Config{TranslateError: true}。
func TranslateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
