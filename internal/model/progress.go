package model

import "time"

// LessonProgress 每个 (用户, 课时) 唯一
// swagger:model LessonProgress
type LessonProgress struct {
	BaseModel
	UserID        uint       `gorm:"uniqueIndex:idx_user_lesson;not null" json:"user_id"`
	LessonID      uint       `gorm:"uniqueIndex:idx_user_lesson;not null" json:"lesson_id"`
	IsCompleted   bool       `gorm:"not null" json:"is_completed"`
	Score         *int       `json:"score"`
	Attempts      int        `gorm:"not null" json:"attempts"`
	CompletedAt   *time.Time `json:"completed_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}
