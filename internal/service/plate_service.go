package service

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/plate"

	"github.com/google/uuid"
)

type PlateService struct {
	PlateRepo *repository.PlateRepository
	Storage   *StorageService

	rand func() uint64
}

func NewPlateService(plateRepo *repository.PlateRepository, storage *StorageService) *PlateService {
	return &PlateService{PlateRepo: plateRepo, Storage: storage, rand: rand.Uint64}
}

// PlateRequest leaves Digit and Seed optional; missing values are drawn at random.
type PlateRequest struct {
	Digit *int    `json:"digit" binding:"omitempty,min=0,max=9"`
	Seed  *uint64 `json:"seed"`
}

// Generate renders a plate, stores the SVG and records it for the user.
func (s *PlateService) Generate(ctx context.Context, userID uint, req PlateRequest) (*model.Plate, error) {
	seed := s.rand()
	if req.Seed != nil {
		seed = *req.Seed
	}
	digit := int(seed % 10)
	if req.Digit != nil {
		digit = *req.Digit
	}

	svg, err := plate.Render(digit, seed)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("plates/%d/%s.svg", userID, uuid.NewString())
	url, err := s.Storage.Upload(ctx, path, bytes.NewReader(svg), int64(len(svg)), util.MimeSVG)
	if err != nil {
		return nil, fmt.Errorf("store plate: %w", err)
	}

	p := &model.Plate{UserID: userID, Digit: digit, Seed: seed, Path: path, URL: url}
	if err := s.PlateRepo.Create(p); err != nil {
		if delErr := s.Storage.Delete(ctx, path); delErr != nil {
			return nil, fmt.Errorf("save plate: %w (cleanup: %v)", err, delErr)
		}
		return nil, fmt.Errorf("save plate: %w", err)
	}
	return p, nil
}

func (s *PlateService) List(userID uint) ([]model.Plate, error) {
	return s.PlateRepo.ListByUser(userID, 50)
}
