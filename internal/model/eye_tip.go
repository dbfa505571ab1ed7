package model

// EyeTip is a short eye-care tip shown on the home screen.
type EyeTip struct {
	BaseModel
	Title    string `gorm:"size:120;not null" json:"title"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Category string `gorm:"size:40;index" json:"category"`
}

func (EyeTip) TableName() string {
	return "eye_tips"
}
