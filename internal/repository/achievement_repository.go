package repository

import (
	"eyecare_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

func (r *AchievementRepository) WithTx(tx *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: tx}
}

func (r *AchievementRepository) FindByUserID(userID uint) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

// Grant stores the badge unless the user already holds it. It reports
// whether a new row was written.
func (r *AchievementRepository) Grant(a *model.Achievement) (bool, error) {
	res := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
