package model

import (
	"gorm.io/datatypes"
)

type LessonType string

const (
	LessonTypeLesson LessonType = "lesson"
	LessonTypeQuiz   LessonType = "quiz"
	LessonTypeCoding LessonType = "coding"
)

// swagger:model Course
type Course struct {
	BaseModel
	Title       string  `gorm:"size:200;not null" json:"title"`
	Slug        string  `gorm:"size:200;index" json:"slug"`
	Description string  `gorm:"type:text" json:"description"`
	ImageURL    string  `gorm:"size:255" json:"image_url"`
	OrderIndex  int     `gorm:"index;not null" json:"order_index"`
	IsLocked    bool    `gorm:"not null" json:"is_locked"`
	Topics      []Topic `gorm:"foreignKey:CourseID" json:"topics,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Topic
type Topic struct {
	BaseModel
	CourseID    uint     `gorm:"index;not null" json:"course_id"`
	Title       string   `gorm:"size:200;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	OrderIndex  int      `gorm:"not null" json:"order_index"`
	IsLocked    bool     `gorm:"not null" json:"is_locked"`
	Lessons     []Lesson `gorm:"foreignKey:TopicID" json:"lessons,omitempty"`
}

func (Topic) TableName() string {
	return "topics"
}

// swagger:model Lesson
type Lesson struct {
	BaseModel
	TopicID              uint           `gorm:"index;not null" json:"topic_id"`
	Title                string         `gorm:"size:200;not null" json:"title"`
	Type                 LessonType     `gorm:"size:20;not null" json:"type"`
	Content              datatypes.JSON `json:"content"`
	OrderIndex           int            `gorm:"not null" json:"order_index"`
	XPReward             int            `gorm:"not null" json:"xp_reward"`
	CoinsReward          int            `gorm:"not null" json:"coins_reward"`
	EstimatedTimeMinutes int            `gorm:"not null" json:"estimated_time_minutes"`
	// 仅 quiz 类型课时有题目
	QuizQuestions []QuizQuestion `gorm:"foreignKey:LessonID" json:"quiz_questions,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	LessonID    uint         `gorm:"index;not null" json:"lesson_id"`
	Question    string       `gorm:"type:text;not null" json:"question"`
	Explanation string       `gorm:"type:text" json:"explanation"`
	OrderIndex  int          `gorm:"not null" json:"order_index"`
	Options     []QuizOption `gorm:"foreignKey:QuestionID" json:"options"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizOption 正确答案随题目一起下发，由前端判分
type QuizOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"column:option_text;type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null" json:"is_correct"`
	OrderIndex int    `gorm:"not null" json:"order_index"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}
