package service

import (
	"testing"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckinService_StreakAndBadge(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCheckinService(repository.NewCheckinRepository(env.db), env.achievements)
	u := env.user(t, "streak@example.com")

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	var res *CheckinResult
	for i := 0; i < 7; i++ {
		var err error
		res, err = svc.Checkin(u.ID, day.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Checkin.StreakDays)
	}

	require.Len(t, res.Reward.Badges, 1)
	assert.Equal(t, model.BadgeStreak7, res.Reward.Badges[0].Code)
	// 7 check-ins at 5 XP plus the 70 XP streak bonus
	assert.Equal(t, 7*5+70, env.xp(t, u.ID))

	_, err := svc.Checkin(u.ID, day.AddDate(0, 0, 6).Add(2*time.Hour))
	assert.ErrorIs(t, err, util.ErrAlreadyCheckedIn)
}

func TestCheckinService_GapResetsStreak(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCheckinService(repository.NewCheckinRepository(env.db), env.achievements)
	u := env.user(t, "gap@example.com")

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	_, err := svc.Checkin(u.ID, day)
	require.NoError(t, err)
	_, err = svc.Checkin(u.ID, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	res, err := svc.Checkin(u.ID, day.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checkin.StreakDays)
}

func TestCheckinService_Status(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCheckinService(repository.NewCheckinRepository(env.db), env.achievements)
	u := env.user(t, "status@example.com")
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

	status, err := svc.Status(u.ID, day)
	require.NoError(t, err)
	assert.Equal(t, &CheckinStatus{}, status)

	_, err = svc.Checkin(u.ID, day)
	require.NoError(t, err)

	status, err = svc.Status(u.ID, day.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, status.CheckedInToday)
	assert.Equal(t, 1, status.StreakDays)
	assert.EqualValues(t, 1, status.TotalDays)

	status, err = svc.Status(u.ID, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, status.CheckedInToday)
	assert.Equal(t, 1, status.StreakDays)

	status, err = svc.Status(u.ID, day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Zero(t, status.StreakDays)

	ok, err := svc.IsCheckedInToday(u.ID, day)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAchievementService_AwardGrantsBadgeOnce(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "award@example.com")

	reward, err := env.achievements.Award(u.ID, 20, model.BadgeFirstTest, "unknown_badge")
	require.NoError(t, err)
	assert.Equal(t, 30, reward.XP)
	require.Len(t, reward.Badges, 1)

	reward, err = env.achievements.Award(u.ID, 20, model.BadgeFirstTest)
	require.NoError(t, err)
	assert.Equal(t, 20, reward.XP)
	assert.Empty(t, reward.Badges)

	summary, err := env.achievements.GetUserAchievements(u.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, summary.TotalXP)
	assert.Equal(t, 0, summary.CurrentLevel)
	assert.Equal(t, 200, summary.NextLevelXP)
	assert.Len(t, summary.Badges, 1)
	require.Len(t, summary.Leaderboard, 1)
	assert.Equal(t, 1, summary.Leaderboard[0].Rank)
}

func TestAchievementService_Leaderboard(t *testing.T) {
	env := newTestEnv(t)
	low := env.user(t, "low@example.com")
	high := env.user(t, "high@example.com")
	require.NoError(t, env.users.UpdateXP(low.ID, 10))
	require.NoError(t, env.users.UpdateXP(high.ID, 500))

	board, err := env.achievements.GetLeaderboard(0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "high@example.com", board[0].User)
	assert.Equal(t, 500, board[0].XP)
	assert.Equal(t, 2, board[1].Rank)
}

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		xp, level, next int
	}{
		{0, 0, 200},
		{199, 0, 200},
		{200, 1, 400},
		{1050, 5, 1200},
	}
	for _, tt := range tests {
		level, next := calculateLevel(tt.xp)
		assert.Equal(t, tt.level, level, "xp %d", tt.xp)
		assert.Equal(t, tt.next, next, "xp %d", tt.xp)
	}
}
