package service

import (
	"errors"
	"strings"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/util"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserFilter narrows the admin user list.
type UserFilter struct {
	Role string
	// Status is "active", "disabled", "online" (seen in the last 24h) or empty.
	Status    string
	Search    string
	StartDate time.Time
	EndDate   time.Time
}

// UserService backs the admin user management endpoints.
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) GetUsers(page, limit int, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := s.UserRepo.DB.Model(&model.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	switch filter.Status {
	case "active":
		query = query.Where("disabled = ?", false)
	case "disabled":
		query = query.Where("disabled = ?", true)
	case "online":
		query = query.Where("last_seen > ?", time.Now().Add(-24*time.Hour))
	}

	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", term, term)
	}
	if !filter.StartDate.IsZero() {
		query = query.Where("created_at >= ?", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query = query.Where("created_at <= ?", filter.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Offset((page - 1) * limit).Limit(limit).Order("created_at DESC").Order("id DESC").Find(&users).Error
	return users, total, err
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// SetRole promotes or demotes a user.
func (s *UserService) SetRole(id uint, role model.UserRole) (*model.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	return user, s.UserRepo.Update(user)
}

// ResetPassword replaces the user's password with a random temporary one and returns it.
func (s *UserService) ResetPassword(id uint) (string, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return "", err
	}

	temp := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	hashed, err := bcrypt.GenerateFromPassword([]byte(temp), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	user.Password = string(hashed)
	if err := s.UserRepo.Update(user); err != nil {
		return "", err
	}
	return temp, nil
}

func (s *UserService) DisableUser(id uint, disable bool) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	user.Disabled = disable
	return s.UserRepo.Update(user)
}

func (s *UserService) DeleteUser(id uint) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	return s.UserRepo.DB.Delete(user).Error
}
