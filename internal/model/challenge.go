package model

import (
	"time"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Challenge 编程挑战。参考答案与期望输出不会出现在任何响应中
// swagger:model Challenge
type Challenge struct {
	BaseModel
	Title          string                      `gorm:"size:200;not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	Difficulty     Difficulty                  `gorm:"size:20;index;not null" json:"difficulty"`
	StarterCode    string                      `gorm:"type:text" json:"starter_code"`
	SolutionCode   string                      `gorm:"type:text" json:"-"`
	ExpectedOutput string                      `gorm:"type:text" json:"-"`
	Hints          datatypes.JSONSlice[string] `json:"hints"`
	Points         int                         `gorm:"not null" json:"points"`
	LessonID       *uint                       `gorm:"index" json:"lesson_id,omitempty"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// ChallengeAttempt 每个 (用户, 挑战) 只有一行，提交次数原地累加
// swagger:model ChallengeAttempt
type ChallengeAttempt struct {
	BaseModel
	UserID        uint       `gorm:"uniqueIndex:idx_user_challenge;not null" json:"user_id"`
	ChallengeID   uint       `gorm:"uniqueIndex:idx_user_challenge;not null" json:"challenge_id"`
	Attempts      int        `gorm:"not null" json:"attempts"`
	CodeSubmitted string     `gorm:"type:text" json:"code_submitted"`
	Completed     bool       `gorm:"not null" json:"completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
}

func (ChallengeAttempt) TableName() string {
	return "challenge_attempts"
}
