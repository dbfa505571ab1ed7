package service

import (
	"testing"
	"time"

	"eyecare_backend/internal/config"
	"eyecare_backend/internal/model"
	"eyecare_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetUsersFilters(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users)

	ada := env.user(t, "ada@example.com")
	env.user(t, "bob@example.com")
	carol := env.user(t, "carol@example.org")
	require.NoError(t, svc.DisableUser(carol.ID, true))
	_, err := svc.SetRole(ada.ID, model.Admin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter UserFilter
		want   int64
	}{
		{"all", UserFilter{}, 3},
		{"admins", UserFilter{Role: string(model.Admin)}, 1},
		{"disabled", UserFilter{Status: "disabled"}, 1},
		{"active", UserFilter{Status: "active"}, 2},
		{"search email", UserFilter{Search: "example.org"}, 1},
		{"registered later", UserFilter{StartDate: time.Now().Add(time.Hour)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, total, err := svc.GetUsers(1, 20, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, users, int(tt.want))
		})
	}

	page, total, err := svc.GetUsers(2, 2, UserFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}

func TestUserService_ResetPasswordAllowsLogin(t *testing.T) {
	env := newTestEnv(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	auth := NewAuthService(env.users, cfg)
	svc := NewUserService(env.users)

	u := &model.User{Name: "Ada", Email: "ada@example.com", Password: "original-pass"}
	require.NoError(t, auth.Register(u))

	temp, err := svc.ResetPassword(u.ID)
	require.NoError(t, err)
	assert.Len(t, temp, 12)

	_, _, err = auth.Login("ada@example.com", "original-pass")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, _, err = auth.Login("ada@example.com", temp)
	assert.NoError(t, err)
}

func TestUserService_DisableBlocksLogin(t *testing.T) {
	env := newTestEnv(t)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	auth := NewAuthService(env.users, cfg)
	svc := NewUserService(env.users)

	u := &model.User{Name: "Bob", Email: "bob@example.com", Password: "bob-pass-123"}
	require.NoError(t, auth.Register(u))
	require.NoError(t, svc.DisableUser(u.ID, true))

	_, _, err := auth.Login("bob@example.com", "bob-pass-123")
	assert.ErrorIs(t, err, util.ErrUserDisabled)

	require.NoError(t, svc.DisableUser(u.ID, false))
	_, _, err = auth.Login("bob@example.com", "bob-pass-123")
	assert.NoError(t, err)
}

func TestUserService_MissingUser(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users)

	_, err := svc.GetUserByID(404)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
	assert.ErrorIs(t, svc.DisableUser(404, true), util.ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(404), util.ErrUserNotFound)
	_, err = svc.ResetPassword(404)
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	u := env.user(t, "gone@example.com")
	require.NoError(t, svc.DeleteUser(u.ID))
	_, err = svc.GetUserByID(u.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
