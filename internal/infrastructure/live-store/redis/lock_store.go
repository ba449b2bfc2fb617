package redislivestore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/mintmarket/marketd/internal/core/ports"
)

const (
	lockKeyPrefix = "marketd:lock:"
	lockTTL       = 30 * time.Second
	retryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock reacquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type lockStore struct {
	rdb *redis.Client
}

func NewLiveStore(rdb *redis.Client) ports.LiveStore {
	return &lockStore{rdb: rdb}
}

func (s *lockStore) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := lockKeyPrefix + key
	token := uuid.New().String()

	for {
		ok, err := s.rdb.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	release := func() {
		if err := releaseScript.Run(
			context.Background(), s.rdb, []string{lockKey}, token,
		).Err(); err != nil && err != redis.Nil {
			log.WithError(err).Warnf("failed to release lock %s", key)
		}
	}
	return release, nil
}

func (s *lockStore) Close() {
	// nolint:all
	s.rdb.Close()
}
