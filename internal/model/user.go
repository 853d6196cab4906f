package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	// XPPerLevel 每升一级所需经验
	XPPerLevel = 100

	StartingCoins = 100
)

// swagger:model User
type User struct {
	BaseModel
	Username       string     `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password       string     `gorm:"size:100;not null" json:"-"`
	FullName       string     `gorm:"size:100" json:"full_name"`
	Level          int        `gorm:"not null" json:"level"`
	Experience     int        `gorm:"not null" json:"experience"`
	Coins          int        `gorm:"not null" json:"coins"`
	Streak         int        `gorm:"not null" json:"streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	AvatarURL      string     `gorm:"size:255" json:"avatar_url"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	IsVerified     bool       `gorm:"not null" json:"is_verified"`
}

func (User) TableName() string {
	return "users"
}

// NewUser 新注册用户的初始状态
func NewUser(username, email, passwordHash, fullName string) *User {
	return &User{
		Username: username,
		Email:    email,
		Password: passwordHash,
		FullName: fullName,
		Level:    1,
		Coins:    StartingCoins,
		IsActive: true,
	}
}

// LevelForExperience level = floor(xp/100)+1
func LevelForExperience(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// BeforeSave 等级总是由经验值推导，不单独存储
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Level = LevelForExperience(u.Experience)
	return nil
}
