package repository

import (
	"eyecare_backend/internal/model"

	"gorm.io/gorm"
)

type TipRepository struct {
	DB *gorm.DB
}

func NewTipRepository(db *gorm.DB) *TipRepository {
	return &TipRepository{DB: db}
}

func (r *TipRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.EyeTip{}).Count(&count).Error
	return count, err
}

// FindByOffset returns the tip at position offset in id order.
func (r *TipRepository) FindByOffset(offset int) (*model.EyeTip, error) {
	var tip model.EyeTip
	err := r.DB.Order("id ASC").Offset(offset).Limit(1).First(&tip).Error
	if err != nil {
		return nil, err
	}
	return &tip, nil
}

func (r *TipRepository) FindAll(category string) ([]model.EyeTip, error) {
	var tips []model.EyeTip
	query := r.DB.Order("id ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Find(&tips).Error
	return tips, err
}
