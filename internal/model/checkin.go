package model

import (
	"time"
)

// Checkin records a daily eye-care check-in.
// swagger:model Checkin
type Checkin struct {
	BaseModel
	UserID     uint      `gorm:"index;not null" json:"userId"`
	CheckinAt  time.Time `gorm:"not null;index" json:"checkinAt"`
	StreakDays int       `gorm:"default:1" json:"streakDays"`
}

func (Checkin) TableName() string {
	return "checkins"
}
