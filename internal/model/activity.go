package model

type ActivityType string

const (
	ActivityLessonCompleted    ActivityType = "lesson_completed"
	ActivityChallengeCompleted ActivityType = "challenge_completed"
	ActivityGameCompleted      ActivityType = "game_completed"
)

// UserActivity 奖励流水
// swagger:model UserActivity
type UserActivity struct {
	BaseModel
	UserID       uint         `gorm:"index;not null" json:"user_id"`
	ActivityType ActivityType `gorm:"size:50;not null" json:"activity_type"`
	ActivityData string       `gorm:"type:text" json:"activity_data"`
	XPEarned     int          `gorm:"not null" json:"xp_earned"`
	CoinsEarned  int          `gorm:"not null" json:"coins_earned"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}
