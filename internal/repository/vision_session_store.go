package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"eyecare_backend/internal/model"
	"eyecare_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// VisionSessionStore keeps live test sessions between requests.
// Get returns util.ErrSessionNotFound for unknown or expired ids.
type VisionSessionStore interface {
	Get(ctx context.Context, id string) (*model.VisionSession, error)
	Save(ctx context.Context, session *model.VisionSession) error
	Delete(ctx context.Context, id string) error
}

const visionSessionKeyPrefix = "eyecare:vision_session:"

func visionSessionKey(id string) string {
	return visionSessionKeyPrefix + id
}

// RedisVisionSessionStore stores each session as JSON under its own key. The
// TTL is refreshed on every save so an active test never expires mid-run.
type RedisVisionSessionStore struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisVisionSessionStore(rdb *redis.Client, ttl time.Duration) *RedisVisionSessionStore {
	return &RedisVisionSessionStore{Redis: rdb, TTL: ttl}
}

func (s *RedisVisionSessionStore) Get(ctx context.Context, id string) (*model.VisionSession, error) {
	data, err := s.Redis.Get(ctx, visionSessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var session model.VisionSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *RedisVisionSessionStore) Save(ctx context.Context, session *model.VisionSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return s.Redis.Set(ctx, visionSessionKey(session.ID), data, s.TTL).Err()
}

func (s *RedisVisionSessionStore) Delete(ctx context.Context, id string) error {
	n, err := s.Redis.Del(ctx, visionSessionKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return util.ErrSessionNotFound
	}
	return nil
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryVisionSessionStore is the single-process fallback used when redis is
// disabled. Sessions are stored encoded so callers never share pointers.
type MemoryVisionSessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryVisionSessionStore(ttl time.Duration) *MemoryVisionSessionStore {
	return &MemoryVisionSessionStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryVisionSessionStore) Get(_ context.Context, id string) (*model.VisionSession, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}

	var session model.VisionSession
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *MemoryVisionSessionStore) Save(_ context.Context, session *model.VisionSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	s.mu.Lock()
	s.entries[session.ID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryVisionSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return util.ErrSessionNotFound
	}
	delete(s.entries, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryVisionSessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
