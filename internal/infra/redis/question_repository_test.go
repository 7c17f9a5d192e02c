package redis

import (
	"context"
	"testing"
	"time"

	"fibra-quiz-service/internal/domain"
	"fibra-quiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var exam1 = domain.Subject{Kind: domain.SubjectExam, ID: 1}

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[domain.Subject][]domain.Question{
			exam1: sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute, zap.NewNop())

	qs, err := repo.LoadQuestions(context.Background(), exam1)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if loader.calls != 1 || len(qs) != 1 {
		t.Fatalf("expected loader called once with 1 question, got calls=%d len=%d", loader.calls, len(qs))
	}
	if !mr.Exists("questions:exam:1") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, loader not incremented, full content preserved.
	qs, err = repo.LoadQuestions(context.Background(), exam1)
	if err != nil {
		t.Fatalf("load questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if qs[0].Prompt == "" || !qs[0].Options[1].Correct || qs[0].LessonTitle != "Nouns" {
		t.Fatalf("cached question lost content: %+v", qs[0])
	}

	if err := repo.Invalidate(context.Background(), exam1); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("questions:exam:1") {
		t.Fatalf("expected redis key removed")
	}
}

func TestQuestionRepositoryIgnoresCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("questions:exam:1", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[domain.Subject][]domain.Question{
			exam1: sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute, zap.NewNop())

	if _, err := repo.LoadQuestions(context.Background(), exam1); err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected reload on corrupt entry, calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, subject)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          1,
			Order:       1,
			Kind:        domain.KindSelect,
			Prompt:      "Which one of these is \"the man\"?",
			LessonTitle: "Nouns",
			Options: []domain.Option{
				{ID: 1, Text: "la mujer", Correct: false},
				{ID: 2, Text: "el hombre", Correct: true},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
