package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"tutor_backend/internal/model"
	"tutor_backend/internal/tutor"
	"tutor_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

// SessionRepository 会话状态存储，会话是短暂的：过期即丢弃
type SessionRepository interface {
	Get(ctx context.Context, id string) (*tutor.Session, error)
	Save(ctx context.Context, s *tutor.Session) error
	// Lock serializes work on one session. The returned func releases the lock.
	Lock(ctx context.Context, id string) (func(), error)
	Ping(ctx context.Context) error
}

const (
	sessionKeyPrefix = "tutor:session:"
	lockKeyPrefix    = "tutor:lock:"
	lockRetry        = 50 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisSessionRepository struct {
	rdb         *redis.Client
	ttl         time.Duration
	lockTimeout time.Duration
}

func NewRedisSessionRepository(rdb *redis.Client, ttl, lockTimeout time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, lockTimeout: lockTimeout}
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*tutor.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s tutor.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Catalog == nil {
		s.Catalog = tutor.DefaultCatalog()
	}
	return &s, nil
}

// Save 写入会话并刷新过期时间（滑动过期）
func (r *RedisSessionRepository) Save(ctx context.Context, s *tutor.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKeyPrefix+s.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Lock(ctx context.Context, id string) (func(), error) {
	key := lockKeyPrefix + id
	token := model.GenerateUUID()

	ticker := time.NewTicker(lockRetry)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.lockTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock session: %w", err)
		}
		if ok {
			return func() {
				// 用独立的 context 释放，避免请求 context 取消后锁残留
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				releaseScript.Run(releaseCtx, r.rdb, []string{key}, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, util.ErrSessionBusy
		case <-ticker.C:
		}
	}
}

func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process; used for tests and single-node setups.
type MemorySessionRepository struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	locks   map[string]chan struct{}
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
		locks:   make(map[string]chan struct{}),
	}
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*tutor.Session, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && r.ttl > 0 && r.now().After(e.expiresAt) {
		delete(r.entries, id)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}

	var s tutor.Session
	if err := json.Unmarshal(e.raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, s *tutor.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries[s.ID] = memoryEntry{raw: raw, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Lock(ctx context.Context, id string) (func(), error) {
	r.mu.Lock()
	ch, ok := r.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		r.locks[id] = ch
	}
	r.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, util.ErrSessionBusy
	}
}

func (r *MemorySessionRepository) Ping(context.Context) error {
	return nil
}
