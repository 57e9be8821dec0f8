// Package runlock keeps two scrapes from running at the same time.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var ErrLocked = errors.New("run lock is held by another run")

// Locker hands out a named single-flight lock. The returned func releases it.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

// LocalLocker guards runs inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]bool{}}
}

func (l *LocalLocker) Acquire(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, fmt.Errorf("%w: %s", ErrLocked, name)
	}
	l.held[name] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, nil
}

// 토큰이 일치할 때만 삭제합니다.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const keyPrefix = "bakehouse:lock:"

// RedisLocker guards runs across processes (cron on one host, the admin
// trigger or the CLI on another). The TTL releases a lock left behind by a
// crashed run.
type RedisLocker struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisLocker connects to Redis and pings it.
func NewRedisLocker(addr, password string, db int, ttl time.Duration) (*RedisLocker, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	log.WithField("addr", addr).Info("[RunLock] Redis 연결 성공")
	return &RedisLocker{rdb: rdb, ttl: ttl}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, name string) (func(), error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, name)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				log.WithError(err).Warnf("[RunLock] %s 잠금 해제 실패 (TTL 만료 시 해제됨)", name)
			}
		})
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}
