package model

import (
	"time"

	"gorm.io/datatypes"
)

// swagger:model Game
type Game struct {
	BaseModel
	Slug        string     `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  Difficulty `gorm:"size:20" json:"difficulty"`
	Category    string     `gorm:"size:50" json:"category"`
	ImageURL    string     `gorm:"size:255" json:"image_url"`
	OrderIndex  int        `gorm:"not null" json:"order_index"`
	XPReward    int        `gorm:"not null" json:"xp_reward"`
	IsActive    bool       `gorm:"index;not null" json:"is_active"`
}

func (Game) TableName() string {
	return "games"
}

// swagger:model UserGameProgress
type UserGameProgress struct {
	BaseModel
	UserID       uint              `gorm:"uniqueIndex:idx_user_game;not null" json:"user_id"`
	GameID       uint              `gorm:"uniqueIndex:idx_user_game;not null" json:"game_id"`
	IsStarted    bool              `gorm:"not null" json:"is_started"`
	IsCompleted  bool              `gorm:"not null" json:"is_completed"`
	CurrentLevel int               `gorm:"not null" json:"current_level"`
	Score        int               `gorm:"not null" json:"score"`
	Data         datatypes.JSONMap `json:"data"`
	LastPlayedAt *time.Time        `json:"last_played_at"`
	CompletedAt  *time.Time        `json:"completed_at"`
}

func (UserGameProgress) TableName() string {
	return "user_game_progress"
}
