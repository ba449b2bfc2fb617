package inmemorylivestore

import (
	"context"
	"sync"

	"github.com/mintmarket/marketd/internal/core/ports"
)

// lockStore serializes asset-scoped operations with one semaphore per key.
type lockStore struct {
	lock  sync.Mutex
	locks map[string]chan struct{}
}

func NewLiveStore() ports.LiveStore {
	return &lockStore{locks: make(map[string]chan struct{})}
}

func (s *lockStore) Acquire(ctx context.Context, key string) (func(), error) {
	sem := s.semaphore(key)

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() { <-sem })
	}
	return release, nil
}

func (s *lockStore) Close() {}

func (s *lockStore) semaphore(key string) chan struct{} {
	s.lock.Lock()
	defer s.lock.Unlock()

	sem, ok := s.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[key] = sem
	}
	return sem
}
