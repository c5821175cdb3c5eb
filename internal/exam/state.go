package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Session TTL: stale sessions are indistinguishable from abandoned ones, so
// they simply age out; the engine enforces no timeout of its own.
const sessionTTL = 24 * time.Hour

// RedisSessionStore is the session persistence collaborator: load/save of the
// serialized Session value keyed by session id, plus a per-session lock so
// concurrent submissions for the same session are serialized.
type RedisSessionStore struct {
	redis  *redis.Client
	logger zerolog.Logger
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(redis *redis.Client, logger zerolog.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		redis:  redis,
		logger: logger.With().Str("component", "session_store").Logger(),
	}
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("exam:session:%s", id.String())
}

// Load retrieves a session. Returns ErrSessionNotFound for unknown or
// expired ids.
func (s *RedisSessionStore) Load(ctx context.Context, id uuid.UUID) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save persists the full session value. Effectively atomic per session id:
// the value is written in one SET.
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Lock acquires a short-lived lock for one session so two nearly-simultaneous
// submissions cannot both pass the no-repeat and max-length checks. Returns
// an unlock function. The lock expires after 10s as a crash backstop.
func (s *RedisSessionStore) Lock(ctx context.Context, id uuid.UUID) (func() error, error) {
	key := fmt.Sprintf("exam:lock:%s", id.String())
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, 10*time.Second).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("session %s is locked", id)
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}

	return unlock, nil
}
