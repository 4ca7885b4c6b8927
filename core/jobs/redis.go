package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "storexport:job:"
	redisLockPrefix = "storexport:lock:"
	// DefaultLockTTL bounds how long a crashed worker can hold a job.
	DefaultLockTTL = 2 * time.Minute
)

// unlockScript deletes the lock only if it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore shares jobs between workers through Redis. It also serves as a
// Locker using SET NX PX.
type RedisStore struct {
	rc      *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore wraps rc. A zero ttl keeps jobs until deleted.
func NewRedisStore(rc *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rc: rc, ttl: ttl, lockTTL: DefaultLockTTL}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rc.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, job *Job) error {
	job.Revision = 1
	data, err := encode(job)
	if err != nil {
		return err
	}
	ok, err := s.rc.SetNX(ctx, s.key(job.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	if !ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Job, error) {
	data, err := s.rc.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return decode(data)
}

// Save runs an optimistic WATCH/MULTI transaction on the job key.
func (s *RedisStore) Save(ctx context.Context, job *Job) error {
	key := s.key(job.ID)
	expected := job.Revision

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		stored, err := decode(data)
		if err != nil {
			return err
		}
		if stored.Revision != expected {
			return ErrConflict
		}

		job.Revision = expected + 1
		next, err := encode(job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}

	err := s.rc.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		job.Revision = expected
		return ErrConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		job.Revision = expected
		return err
	default:
		job.Revision = expected
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rc.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

// Lock acquires the job lock with SET NX PX; the lock expires after lockTTL.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := redisLockPrefix + id
	token := uuid.NewString()
	ok, err := s.rc.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to lock job %s: %w", id, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// released even when the batch context is already cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = unlockScript.Run(unlockCtx, s.rc, []string{key}, token).Err()
	}, nil
}

func (s *RedisStore) Close() error {
	return s.rc.Close()
}
