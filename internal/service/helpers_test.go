package service

import (
	"testing"
	"time"

	"eyecare_backend/internal/config"
	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	users        *repository.UserRepository
	achievements *AchievementService
	vision       *VisionTestService
	store        *repository.MemoryVisionSessionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := database.OpenTestDB(t)
	users := repository.NewUserRepository(db)
	achievements := NewAchievementService(repository.NewAchievementRepository(db), users)
	store := repository.NewMemoryVisionSessionStore(time.Hour)
	vision := NewVisionTestService(store, repository.NewTestResultRepository(db), achievements,
		&config.VisionTestConfig{SessionTTLMinutes: 60, BaseXP: 20, XPPerLevel: 5})
	return &testEnv{db: db, users: users, achievements: achievements, vision: vision, store: store}
}

func (e *testEnv) user(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email, Password: "x", Role: model.Member}
	require.NoError(t, e.users.Create(u))
	return u
}

func (e *testEnv) xp(t *testing.T, userID uint) int {
	t.Helper()
	u, err := e.users.FindByID(userID)
	require.NoError(t, err)
	return u.XP
}
