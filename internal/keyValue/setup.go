package keyValue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type value struct {
	value   string
	expires time.Time
}

// Store is an expiring string store, kept in a local hashmap when self contained and in
// redis otherwise. A missing key reads as "".
type Store struct {
	mutex   sync.RWMutex
	hashmap map[string]value
	now     func() time.Time

	redisClient *redis.Client

	sugar *zap.SugaredLogger
}

func NewLocal(sugar *zap.SugaredLogger) *Store {
	return &Store{
		hashmap: make(map[string]value),
		now:     time.Now,
		sugar:   sugar,
	}
}

func NewRedis(sugar *zap.SugaredLogger, redisClient *redis.Client) *Store {
	return &Store{
		redisClient: redisClient,
		now:         time.Now,
		sugar:       sugar,
	}
}

func (s *Store) local() bool {
	return s.redisClient == nil
}

// RunExpiry drops expired local keys every interval until ctx is done. Redis expires
// keys on its own, so this returns right away there.
func (s *Store) RunExpiry(ctx context.Context, interval time.Duration) {
	if !s.local() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.deleteExpired()
		}
	}
}

func (s *Store) deleteExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for key, v := range s.hashmap {
		if v.expires.Before(now) {
			delete(s.hashmap, key)
		}
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	debugText := fmt.Sprintf("Getting value of key [%s]", key)
	if s.local() {
		s.sugar.Debugf("%s from hashmap", debugText)

		s.mutex.RLock()
		defer s.mutex.RUnlock()

		v, exists := s.hashmap[key]
		if !exists || v.expires.Before(s.now()) {
			return "", nil
		}
		return v.value, nil
	}

	s.sugar.Debugf("%s from redis", debugText)

	result, err := s.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return result, nil
}

func (s *Store) Set(ctx context.Context, key string, v string, expires time.Duration) error {
	debugText := fmt.Sprintf("Setting value of key [%s]", key)
	if s.local() {
		s.sugar.Debugf("%s in hashmap", debugText)

		s.mutex.Lock()
		defer s.mutex.Unlock()

		s.hashmap[key] = value{v, s.now().Add(expires)}
		return nil
	}

	s.sugar.Debugf("%s in redis", debugText)
	return s.redisClient.Set(ctx, key, v, expires).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.local() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		delete(s.hashmap, key)
		return nil
	}

	return s.redisClient.Del(ctx, key).Err()
}
