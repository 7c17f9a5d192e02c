package memory

import (
	"context"
	"sync"

	"fibra-quiz-service/internal/domain"
)

// ResultStore keeps results in process memory. Used when no database is configured.
type ResultStore struct {
	mu      sync.RWMutex
	nextID  int64
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.Result) (domain.Result, error) {
	if result.UserID == "" {
		return domain.Result{}, domain.ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	result.ID = s.nextID
	result.Answers = append([]domain.LedgerEntry(nil), result.Answers...)
	s.results = append(s.results, result)
	return result, nil
}

// LatestResult returns the most recently stored result; later inserts win ties.
func (s *ResultStore) LatestResult(_ context.Context, subject domain.Subject, userID string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.results) - 1; i >= 0; i-- {
		r := s.results[i]
		if r.Subject == subject && r.UserID == userID {
			r.Answers = append([]domain.LedgerEntry(nil), r.Answers...)
			return r, nil
		}
	}
	return domain.Result{}, domain.ErrResultNotFound
}

// Count returns the number of stored results.
func (s *ResultStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
