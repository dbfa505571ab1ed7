package repository

import (
	"time"

	"eyecare_backend/internal/model"

	"gorm.io/gorm"
)

type CheckinRepository struct {
	DB *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{DB: db}
}

func (r *CheckinRepository) Create(checkin *model.Checkin) error {
	return r.DB.Create(checkin).Error
}

// FindByUserAndDate returns the user's check-in on date's calendar day.
func (r *CheckinRepository) FindByUserAndDate(userID uint, date time.Time) (*model.Checkin, error) {
	var checkin model.Checkin
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	err := r.DB.Where("user_id = ? AND checkin_at >= ? AND checkin_at < ?", userID, startOfDay, endOfDay).First(&checkin).Error
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

func (r *CheckinRepository) FindLatestByUser(userID uint) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.DB.Where("user_id = ?", userID).Order("checkin_at DESC").First(&checkin).Error
	if err != nil {
		return nil, err
	}
	return &checkin, nil
}

func (r *CheckinRepository) GetCheckinCountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Checkin{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
