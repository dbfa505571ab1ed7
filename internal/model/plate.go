package model

// Plate is a generated colour-vision plate image.
type Plate struct {
	BaseModel
	UserID uint   `gorm:"index;not null" json:"userId"`
	Digit  int    `json:"digit"`
	Seed   uint64 `json:"seed,string"`
	Path   string `gorm:"size:255;not null" json:"-"`
	URL    string `gorm:"size:512;not null" json:"url"`
}

func (Plate) TableName() string {
	return "plates"
}
