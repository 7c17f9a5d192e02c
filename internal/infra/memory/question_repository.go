package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fibra-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question sets from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error)
}

// QuestionRepository caches question sets with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[domain.Subject]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Subject]cachedQuestions),
	}
}

func (r *QuestionRepository) LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	if qs, ok := r.lookup(subject); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(subject.String(), func() (interface{}, error) {
		if qs, ok := r.lookup(subject); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx, subject)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[subject] = cachedQuestions{
			questions: qs,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneQuestions(result.([]domain.Question)), nil
}

func (r *QuestionRepository) lookup(subject domain.Subject) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[subject]; ok && entry.expiresAt.After(now) {
		return cloneQuestions(entry.questions), true
	}
	return nil, false
}

// Invalidate drops a cached question set so the next load reads through to the loader.
func (r *QuestionRepository) Invalidate(subject domain.Subject) {
	r.mu.Lock()
	delete(r.cache, subject)
	r.mu.Unlock()
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// cloneQuestions copies the slice and each option list so callers cannot mutate the cache.
func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]domain.Option(nil), q.Options...)
		out[i] = q
	}
	return out
}

// StaticQuestionLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuestionLoader struct {
	subjects map[domain.Subject][]domain.Question
}

func NewStaticQuestionLoader(subjects map[domain.Subject][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{subjects: subjects}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, subject domain.Subject) ([]domain.Question, error) {
	if qs, ok := l.subjects[subject]; ok {
		return cloneQuestions(qs), nil
	}
	return nil, domain.ErrSubjectNotFound
}
