package repository

import (
	"context"
	"testing"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/staircase"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(id string) *model.VisionSession {
	return &model.VisionSession{
		ID:     id,
		UserID: 5,
		Kind:   "visual_acuity",
		Eye:    model.EyeRight,
		State: staircase.State{
			Phase: staircase.PhaseRunning,
			Seed:  77,
			Run:   1,
			Stimulus: &staircase.Stimulus{
				Expected: "K",
				Options:  []string{"C", "K", "O", "Z"},
			},
		},
	}
}

func exerciseStore(t *testing.T, store VisionSessionStore) {
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, sampleSession("s1")))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, uint64(77), got.State.Seed)
	require.NotNil(t, got.State.Stimulus)
	assert.Equal(t, "K", got.State.Stimulus.Expected)

	got.State.Stimulus.Expected = "changed"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "K", again.State.Stimulus.Expected)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "s1"), util.ErrSessionNotFound)
}

func TestMemoryVisionSessionStore(t *testing.T) {
	exerciseStore(t, NewMemoryVisionSessionStore(time.Minute))
}

func TestMemoryVisionSessionStore_Expiry(t *testing.T) {
	store := NewMemoryVisionSessionStore(time.Minute)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleSession("a")))
	require.NoError(t, store.Save(ctx, sampleSession("b")))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.Equal(t, 1, store.Sweep())
}

func TestRedisVisionSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := NewRedisVisionSessionStore(rdb, 30*time.Minute)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), sampleSession("ttl")))
	assert.Equal(t, 30*time.Minute, mr.TTL(visionSessionKey("ttl")))

	mr.FastForward(31 * time.Minute)
	_, err := store.Get(context.Background(), "ttl")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}
