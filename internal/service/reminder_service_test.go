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

func boolPtr(b bool) *bool { return &b }

func TestReminderService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReminderService(repository.NewReminderRepository(env.db))
	u := env.user(t, "remind@example.com")
	other := env.user(t, "other@example.com")

	r, err := svc.Create(u.ID, ReminderRequest{Label: "20-20-20", TimeOfDay: "10:30", Weekdays: []int{1, 3, 5}})
	require.NoError(t, err)
	assert.True(t, r.Enabled)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, r.Days())
	assert.Equal(t, "UTC", r.Timezone)

	_, err = svc.Create(u.ID, ReminderRequest{Label: "bad", TimeOfDay: "25:99", Weekdays: []int{1}})
	assert.Error(t, err)
	_, err = svc.Create(u.ID, ReminderRequest{Label: "bad", TimeOfDay: "10:00", Weekdays: []int{7}})
	assert.Error(t, err)
	_, err = svc.Create(u.ID, ReminderRequest{Label: "bad", TimeOfDay: "10:00", Weekdays: []int{1}, Timezone: "Mars/Olympus"})
	assert.ErrorContains(t, err, "timezone")

	updated, err := svc.Update(u.ID, r.ID, ReminderRequest{Label: "Blink", TimeOfDay: "08:00", Weekdays: []int{0}, Timezone: "Asia/Tokyo", Enabled: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Blink", updated.Label)
	assert.Equal(t, "Asia/Tokyo", updated.Timezone)
	assert.False(t, updated.Enabled)

	_, err = svc.Update(other.ID, r.ID, ReminderRequest{Label: "x", TimeOfDay: "08:00", Weekdays: []int{0}})
	assert.ErrorIs(t, err, util.ErrReminderNotFound)
	assert.ErrorIs(t, svc.Delete(other.ID, r.ID), util.ErrReminderNotFound)

	list, err := svc.List(u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(u.ID, r.ID))
	assert.ErrorIs(t, svc.Delete(u.ID, r.ID), util.ErrReminderNotFound)
}

func TestReminderService_FireDueOncePerDay(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReminderService(repository.NewReminderRepository(env.db))
	u := env.user(t, "fire@example.com")

	// 2026-03-02 is a Monday
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(u.ID, ReminderRequest{Label: "morning", TimeOfDay: "09:00", Weekdays: []int{1}})
	require.NoError(t, err)
	_, err = svc.Create(u.ID, ReminderRequest{Label: "off", TimeOfDay: "09:00", Weekdays: []int{1}, Enabled: boolPtr(false)})
	require.NoError(t, err)

	n, err := svc.FireDue(monday.Add(8 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.FireDue(monday.Add(9*time.Hour + time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.FireDue(monday.Add(10 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.FireDue(monday.AddDate(0, 0, 1).Add(10 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "tuesday is not scheduled")

	n, err = svc.FireDue(monday.AddDate(0, 0, 7).Add(9 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReminderService_FireDueInReminderZone(t *testing.T) {
	env := newTestEnv(t)
	svc := NewReminderService(repository.NewReminderRepository(env.db))
	u := env.user(t, "zone@example.com")

	// 08:30 on Monday in New York is 12:30 UTC (EDT) on 2026-10-19
	_, err := svc.Create(u.ID, ReminderRequest{Label: "ny", TimeOfDay: "08:30", Weekdays: []int{1}, Timezone: "America/New_York"})
	require.NoError(t, err)

	n, err := svc.FireDue(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n, "still before 08:30 in New York")

	n, err = svc.FireDue(time.Date(2026, 10, 19, 12, 31, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 01:00 UTC on Tuesday is still Monday evening in New York
	n, err = svc.FireDue(time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTipService_TodayRotatesDaily(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTipService(repository.NewTipRepository(env.db))

	tip, err := svc.Today(time.Now())
	require.NoError(t, err)
	assert.Nil(t, tip)

	require.NoError(t, env.db.Create(&[]model.EyeTip{
		{Title: "a", Content: "first", Category: "screen"},
		{Title: "b", Content: "second", Category: "diet"},
	}).Error)

	day := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	first, err := svc.Today(day)
	require.NoError(t, err)
	again, err := svc.Today(day.Add(3 * time.Hour))
	require.NoError(t, err)
	next, err := svc.Today(day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.NotEqual(t, first.ID, next.ID)

	diet, err := svc.List("diet")
	require.NoError(t, err)
	require.Len(t, diet, 1)
	assert.Equal(t, "b", diet[0].Title)
}
