package repository

import (
	"eyecare_backend/internal/model"

	"gorm.io/gorm"
)

type PlateRepository struct {
	DB *gorm.DB
}

func NewPlateRepository(db *gorm.DB) *PlateRepository {
	return &PlateRepository{DB: db}
}

func (r *PlateRepository) Create(plate *model.Plate) error {
	return r.DB.Create(plate).Error
}

func (r *PlateRepository) ListByUser(userID uint, limit int) ([]model.Plate, error) {
	var plates []model.Plate
	err := r.DB.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&plates).Error
	return plates, err
}
