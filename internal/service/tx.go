package service

import (
	"errors"

	"pythonchick_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// retryOnConflict 并发首次插入同一 (user, x) 行时，后到者会撞唯一键；
// 整个事务重跑一次即可读到先到者写入的行
func retryOnConflict(op string, fn func() error) error {
	err := fn()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		logger.Log.Warn("concurrent write conflict, retrying once", zap.String("op", op))
		err = fn()
	}
	return err
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
