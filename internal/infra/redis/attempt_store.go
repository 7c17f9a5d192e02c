package redis

import (
	"context"
	"sync"
	"time"

	"fibra-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempt state lives in the local map; an attempt is bound to the connection
//     that drives it, so it never has to move between instances.
//   - Redis holds a liveness marker per attempt (subject and mode) so operators can
//     see in-flight attempts across instances.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(attempt *app.Attempt) {
	s.mu.Lock()
	s.attempts[attempt.ID()] = attempt
	s.mu.Unlock()
	// best-effort liveness marker
	_ = s.client.HSet(context.Background(), s.key(attempt.ID()),
		"subject", attempt.Subject().String(),
		"mode", string(attempt.Mode()),
		"startedAt", attempt.CreatedAt().UTC().Format(time.RFC3339),
	).Err()
	if s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(attempt.ID()), s.ttl).Err()
	}
}

func (s *AttemptStore) Get(attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
