package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when the user has no stored session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore holds training sessions keyed by user name.
//
// The answer counters of a session are owned by AddAnswer: Save never
// changes them, so a position update cannot roll back an answer recorded
// concurrently. Create starts a new run with zeroed counters.
type SessionStore interface {
	Get(ctx context.Context, userName string) (*model.Session, error)
	Create(ctx context.Context, s *model.Session) error
	Save(ctx context.Context, s *model.Session) error
	AddAnswer(ctx context.Context, userName string, correct bool) error
	Delete(ctx context.Context, userName string) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*model.Session)}
}

// Get returns a copy of the stored session.
func (m *MemorySessionStore) Get(_ context.Context, userName string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userName]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Create stores a copy of s with zeroed counters.
func (m *MemorySessionStore) Create(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.Clone()
	c.CorrectCount, c.AnsweredCount = 0, 0
	m.sessions[s.UserName] = c
	return nil
}

// Save stores a copy of s, keeping the stored counters.
func (m *MemorySessionStore) Save(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := s.Clone()
	c.CorrectCount, c.AnsweredCount = 0, 0
	if prev, ok := m.sessions[s.UserName]; ok {
		c.CorrectCount, c.AnsweredCount = prev.CorrectCount, prev.AnsweredCount
	}
	m.sessions[s.UserName] = c
	return nil
}

// AddAnswer bumps the answer counters of the stored session.
func (m *MemorySessionStore) AddAnswer(_ context.Context, userName string, correct bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userName]
	if !ok {
		return ErrSessionNotFound
	}
	s.AnsweredCount++
	if correct {
		s.CorrectCount++
	}
	return nil
}

// Delete removes the session; deleting a missing session is not an error.
func (m *MemorySessionStore) Delete(_ context.Context, userName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userName)
	return nil
}

// sessionCounters is the Redis hash holding a session's answer counters.
type sessionCounters struct {
	Answered int `redis:"answered"`
	Correct  int `redis:"correct"`
}

// RedisSessionStore keeps sessions as JSON values in Redis so several API
// instances can serve the same users. Counters live in a separate hash and
// are updated with HINCRBY.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a RedisSessionStore. A zero ttl keeps
// sessions until reset.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionStore) Get(ctx context.Context, userName string) (*model.Session, error) {
	var (
		get   *redis.StringCmd
		stats *redis.SliceCmd
	)
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, config.CacheKey.TrainingSessionKey(userName))
		stats = pipe.HMGet(ctx, config.CacheKey.TrainingStatsKey(userName), "answered", "correct")
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	data, err := get.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	var c sessionCounters
	if err := stats.Scan(&c); err != nil {
		return nil, fmt.Errorf("scan session counters: %w", err)
	}
	s.AnsweredCount, s.CorrectCount = c.Answered, c.Correct
	return &s, nil
}

func (r *RedisSessionStore) Create(ctx context.Context, s *model.Session) error {
	data, err := marshalSession(s)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, config.CacheKey.TrainingSessionKey(s.UserName), data, r.ttl)
		pipe.Del(ctx, config.CacheKey.TrainingStatsKey(s.UserName))
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *model.Session) error {
	data, err := marshalSession(s)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, config.CacheKey.TrainingSessionKey(s.UserName), data, r.ttl)
		if r.ttl > 0 {
			pipe.Expire(ctx, config.CacheKey.TrainingStatsKey(s.UserName), r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) AddAnswer(ctx context.Context, userName string, correct bool) error {
	n, err := r.rdb.Exists(ctx, config.CacheKey.TrainingSessionKey(userName)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}

	key := config.CacheKey.TrainingStatsKey(userName)
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, "answered", 1)
		if correct {
			pipe.HIncrBy(ctx, key, "correct", 1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add answer: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, userName string) error {
	keys := []string{config.CacheKey.TrainingSessionKey(userName), config.CacheKey.TrainingStatsKey(userName)}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func marshalSession(s *model.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}
