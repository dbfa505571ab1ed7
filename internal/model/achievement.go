package model

// Badge codes awarded by the gamification service.
const (
	BadgeFirstTest    = "first_test"
	BadgePerfectSight = "perfect_vision"
	BadgeStreak7      = "streak_7"
)

// Achievement is a badge earned by a user. A user holds each code at most once.
type Achievement struct {
	BaseModel
	UserID   uint   `gorm:"uniqueIndex:idx_user_badge;not null" json:"userId"`
	Code     string `gorm:"size:50;uniqueIndex:idx_user_badge;not null" json:"code"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Icon     string `gorm:"size:255" json:"icon"`
	EarnedXP int    `gorm:"default:0" json:"earnedXp"`
}

func (Achievement) TableName() string {
	return "achievements"
}
