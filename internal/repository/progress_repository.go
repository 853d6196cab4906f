package repository

import (
	"pythonchick_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// FindForUpdate 找不到时返回 gorm.ErrRecordNotFound
func (r *ProgressRepository) FindForUpdate(userID, lessonID uint) (*model.LessonProgress, error) {
	var p model.LessonProgress
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&p).Error
	return &p, err
}

func (r *ProgressRepository) Create(p *model.LessonProgress) error {
	return r.DB.Create(p).Error
}

func (r *ProgressRepository) Save(p *model.LessonProgress) error {
	return r.DB.Save(p).Error
}

// CountCompletedInTopic 该用户在主题下已完成的课时数
func (r *ProgressRepository) CountCompletedInTopic(userID, topicID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id AND lessons.deleted_at IS NULL").
		Where("lesson_progress.user_id = ? AND lessons.topic_id = ? AND lesson_progress.is_completed = ?", userID, topicID, true).
		Count(&n).Error
	return n, err
}

// CompletedLessonIDs 返回给定课时中已完成的集合
func (r *ProgressRepository) CompletedLessonIDs(userID uint, lessonIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if len(lessonIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id IN ? AND is_completed = ?", userID, lessonIDs, true).
		Pluck("lesson_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}

func (r *ProgressRepository) ListByUser(userID uint) ([]model.LessonProgress, error) {
	var list []model.LessonProgress
	err := r.DB.Where("user_id = ?", userID).Order("updated_at DESC").Find(&list).Error
	return list, err
}
