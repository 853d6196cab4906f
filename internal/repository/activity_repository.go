package repository

import (
	"pythonchick_backend/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) WithTx(tx *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: tx}
}

func (r *ActivityRepository) Create(a *model.UserActivity) error {
	return r.DB.Create(a).Error
}

func (r *ActivityRepository) ListByUser(userID uint, limit int) ([]model.UserActivity, error) {
	var list []model.UserActivity
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
