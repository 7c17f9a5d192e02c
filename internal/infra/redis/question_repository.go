package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"fibra-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question sets from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error)
}

// QuestionRepository caches question sets in Redis and falls back to a loader on miss.
// Each set is stored as one JSON value: SET questions:{kind}:{id} <json> EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	log    *zap.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration, log *zap.Logger) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	key := questionsKey(subject)
	if qs, ok := r.cached(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx, key); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadQuestions(ctx, subject)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(qs)
		if err != nil {
			return nil, err
		}
		// best-effort fill; a Redis outage only costs a reload
		if err := r.client.Set(ctx, key, data, r.ttlWithJitter()).Err(); err != nil {
			r.log.Warn("cache question set failed", zap.String("key", key), zap.Error(err))
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached set for subject.
func (r *QuestionRepository) Invalidate(ctx context.Context, subject domain.Subject) error {
	return r.client.Del(ctx, questionsKey(subject)).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("read question cache failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(data, &qs); err != nil {
		r.log.Warn("corrupt question cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return qs, true
}

func questionsKey(subject domain.Subject) string {
	return "questions:" + string(subject.Kind) + ":" + strconv.FormatInt(subject.ID, 10)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
