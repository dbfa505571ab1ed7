package service

import (
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
)

type TipService struct {
	TipRepo *repository.TipRepository
}

func NewTipService(tipRepo *repository.TipRepository) *TipService {
	return &TipService{TipRepo: tipRepo}
}

// Today returns the tip of the day. Tips rotate once per calendar day so
// every user sees the same one. It returns nil when there are no tips.
func (s *TipService) Today(now time.Time) (*model.EyeTip, error) {
	count, err := s.TipRepo.Count()
	if err != nil || count == 0 {
		return nil, err
	}
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return s.TipRepo.FindByOffset(int(day % count))
}

func (s *TipService) List(category string) ([]model.EyeTip, error) {
	return s.TipRepo.FindAll(category)
}
