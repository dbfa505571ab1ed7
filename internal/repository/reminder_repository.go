package repository

import (
	"time"

	"eyecare_backend/internal/model"

	"gorm.io/gorm"
)

type ReminderRepository struct {
	DB *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{DB: db}
}

func (r *ReminderRepository) Create(reminder *model.Reminder) error {
	return r.DB.Create(reminder).Error
}

func (r *ReminderRepository) FindByIDAndUserID(id, userID uint) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (r *ReminderRepository) ListByUser(userID uint) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.DB.Where("user_id = ?", userID).Order("time_of_day ASC").Find(&reminders).Error
	return reminders, err
}

func (r *ReminderRepository) Update(reminder *model.Reminder) error {
	return r.DB.Save(reminder).Error
}

func (r *ReminderRepository) Delete(id, userID uint) (bool, error) {
	res := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Reminder{})
	return res.RowsAffected > 0, res.Error
}

func (r *ReminderRepository) FindEnabled() ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.DB.Where("enabled = ?", true).Find(&reminders).Error
	return reminders, err
}

func (r *ReminderRepository) MarkFired(id uint, at time.Time) error {
	return r.DB.Model(&model.Reminder{}).Where("id = ?", id).Update("last_fired_at", at).Error
}
