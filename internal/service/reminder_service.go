package service

import (
	"errors"
	"fmt"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/logger"
	"eyecare_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReminderService struct {
	ReminderRepo *repository.ReminderRepository
}

func NewReminderService(reminderRepo *repository.ReminderRepository) *ReminderService {
	return &ReminderService{ReminderRepo: reminderRepo}
}

// ReminderRequest carries weekdays as 0 (Sunday) to 6 (Saturday) and an
// IANA timezone such as "Europe/Berlin". An omitted timezone is UTC.
type ReminderRequest struct {
	Label     string `json:"label" binding:"required,max=100"`
	TimeOfDay string `json:"timeOfDay" binding:"required"`
	Weekdays  []int  `json:"weekdays" binding:"required,min=1,dive,min=0,max=6"`
	Timezone  string `json:"timezone" binding:"max=64"`
	Enabled   *bool  `json:"enabled"`
}

func (r ReminderRequest) apply(reminder *model.Reminder) error {
	if _, _, err := model.ParseTimeOfDay(r.TimeOfDay); err != nil {
		return err
	}
	loc, err := model.LoadTimezone(r.Timezone)
	if err != nil {
		return err
	}
	days := make([]time.Weekday, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range", d)
		}
		days = append(days, time.Weekday(d))
	}
	reminder.Label = r.Label
	reminder.TimeOfDay = r.TimeOfDay
	reminder.Weekdays = model.WeekdayMask(days)
	reminder.Timezone = loc.String()
	if r.Enabled != nil {
		reminder.Enabled = *r.Enabled
	}
	return nil
}

func (s *ReminderService) Create(userID uint, req ReminderRequest) (*model.Reminder, error) {
	reminder := &model.Reminder{UserID: userID, Enabled: true}
	if err := req.apply(reminder); err != nil {
		return nil, err
	}
	if err := s.ReminderRepo.Create(reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) List(userID uint) ([]model.Reminder, error) {
	return s.ReminderRepo.ListByUser(userID)
}

func (s *ReminderService) Update(userID, id uint, req ReminderRequest) (*model.Reminder, error) {
	reminder, err := s.ReminderRepo.FindByIDAndUserID(id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrReminderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := req.apply(reminder); err != nil {
		return nil, err
	}
	if err := s.ReminderRepo.Update(reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) Delete(userID, id uint) error {
	deleted, err := s.ReminderRepo.Delete(id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return util.ErrReminderNotFound
	}
	return nil
}

// FireDue marks every reminder due at now as fired and returns how many
// fired. Delivery is the log line; push channels hang off this hook.
func (s *ReminderService) FireDue(now time.Time) (int, error) {
	reminders, err := s.ReminderRepo.FindEnabled()
	if err != nil {
		return 0, err
	}

	fired := 0
	for i := range reminders {
		r := &reminders[i]
		if !r.DueAt(now) {
			continue
		}
		if err := s.ReminderRepo.MarkFired(r.ID, now); err != nil {
			logger.Log.Error("mark reminder fired", zap.Uint("reminder_id", r.ID), zap.Error(err))
			continue
		}
		fired++
		monitoring.RemindersFired.Inc()
		logger.Log.Info("reminder due",
			zap.Uint("reminder_id", r.ID),
			zap.Uint("user_id", r.UserID),
			zap.String("label", r.Label),
		)
	}
	return fired, nil
}
