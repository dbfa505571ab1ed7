package service

import (
	"errors"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/util"

	"gorm.io/gorm"
)

const (
	checkinXP       = 5
	streakBadgeDays = 7
)

type CheckinService struct {
	CheckinRepo  *repository.CheckinRepository
	Achievements *AchievementService
}

func NewCheckinService(checkinRepo *repository.CheckinRepository, achievements *AchievementService) *CheckinService {
	return &CheckinService{CheckinRepo: checkinRepo, Achievements: achievements}
}

type CheckinStatus struct {
	CheckedInToday bool  `json:"checkedInToday"`
	StreakDays     int   `json:"streakDays"`
	TotalDays      int64 `json:"totalDays"`
}

type CheckinResult struct {
	Checkin *model.Checkin `json:"checkin"`
	Reward  *Reward        `json:"reward"`
}

// Checkin records today's check-in. The streak continues when the previous
// check-in was yesterday and restarts at 1 otherwise.
func (s *CheckinService) Checkin(userID uint, now time.Time) (*CheckinResult, error) {
	if _, err := s.CheckinRepo.FindByUserAndDate(userID, now); err == nil {
		return nil, util.ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	streak := 1
	latest, err := s.CheckinRepo.FindLatestByUser(userID)
	switch {
	case err == nil:
		if sameDay(latest.CheckinAt, now.AddDate(0, 0, -1)) {
			streak = latest.StreakDays + 1
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	checkin := &model.Checkin{UserID: userID, CheckinAt: now, StreakDays: streak}
	if err := s.CheckinRepo.Create(checkin); err != nil {
		return nil, err
	}

	var codes []string
	if streak >= streakBadgeDays {
		codes = append(codes, model.BadgeStreak7)
	}
	reward, err := s.Achievements.Award(userID, checkinXP, codes...)
	if err != nil {
		return nil, err
	}
	return &CheckinResult{Checkin: checkin, Reward: reward}, nil
}

func (s *CheckinService) IsCheckedInToday(userID uint, now time.Time) (bool, error) {
	_, err := s.CheckinRepo.FindByUserAndDate(userID, now)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// Status reports the current streak. A streak whose last day is before
// yesterday has lapsed and reads as 0.
func (s *CheckinService) Status(userID uint, now time.Time) (*CheckinStatus, error) {
	total, err := s.CheckinRepo.GetCheckinCountByUser(userID)
	if err != nil {
		return nil, err
	}
	status := &CheckinStatus{TotalDays: total}

	latest, err := s.CheckinRepo.FindLatestByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}
	switch {
	case sameDay(latest.CheckinAt, now):
		status.CheckedInToday = true
		status.StreakDays = latest.StreakDays
	case sameDay(latest.CheckinAt, now.AddDate(0, 0, -1)):
		status.StreakDays = latest.StreakDays
	}
	return status, nil
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
