package util

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailRegistered      = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserDisabled         = errors.New("user disabled")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidID            = errors.New("invalid id")
	ErrSessionNotFound      = errors.New("vision test session not found")
	ErrResultNotFound       = errors.New("test result not found")
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrInvalidEye           = errors.New("eye must be left, right or both")
	ErrAlreadyCheckedIn     = errors.New("already checked in today")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
