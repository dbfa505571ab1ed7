package repository

import (
	"eyecare_backend/internal/model"

	"gorm.io/gorm"
)

type TestResultRepository struct {
	DB *gorm.DB
}

func NewTestResultRepository(db *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: db}
}

// WithTx returns a repository bound to tx.
func (r *TestResultRepository) WithTx(tx *gorm.DB) *TestResultRepository {
	return &TestResultRepository{DB: tx}
}

func (r *TestResultRepository) Create(result *model.TestResult) error {
	return r.DB.Create(result).Error
}

func (r *TestResultRepository) FindByIDAndUserID(id, userID uint) (*model.TestResult, error) {
	var result model.TestResult
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindBySessionRun returns the result already stored for a session run.
func (r *TestResultRepository) FindBySessionRun(sessionID string, run int) (*model.TestResult, error) {
	var result model.TestResult
	err := r.DB.Where("session_id = ? AND run = ?", sessionID, run).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByUser pages through a user's results, newest first. An empty kind
// matches every test type.
func (r *TestResultRepository) ListByUser(userID uint, kind string, page, limit int) ([]model.TestResult, int64, error) {
	var (
		results []model.TestResult
		total   int64
	)
	query := r.DB.Model(&model.TestResult{}).Where("user_id = ?", userID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("finished_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&results).Error
	return results, total, err
}

func (r *TestResultRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestResult{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
