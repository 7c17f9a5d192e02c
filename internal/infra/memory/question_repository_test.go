package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fibra-quiz-service/internal/domain"
)

var exam1 = domain.Subject{Kind: domain.SubjectExam, ID: 1}

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(map[domain.Subject][]domain.Question{
			exam1: sampleQuestions(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.LoadQuestions(context.Background(), exam1); err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.LoadQuestions(context.Background(), exam1); err != nil {
		t.Fatalf("load questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	repo.Invalidate(exam1)
	if _, err := repo.LoadQuestions(context.Background(), exam1); err != nil {
		t.Fatalf("load questions 3: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryReturnsCopies(t *testing.T) {
	repo := NewQuestionRepository(NewStaticQuestionLoader(map[domain.Subject][]domain.Question{
		exam1: sampleQuestions(),
	}), time.Minute)

	first, _ := repo.LoadQuestions(context.Background(), exam1)
	first[0].Options[1].Correct = false

	second, _ := repo.LoadQuestions(context.Background(), exam1)
	if !second[0].Options[1].Correct {
		t.Fatalf("cached question was mutated through a returned slice")
	}
}

func TestStaticLoaderUnknownSubject(t *testing.T) {
	loader := NewStaticQuestionLoader(nil)
	_, err := loader.LoadQuestions(context.Background(), domain.Subject{Kind: domain.SubjectLesson, ID: 9})
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, subject)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     1,
			Order:  1,
			Kind:   domain.KindSelect,
			Prompt: "Which one of these is \"the man\"?",
			Options: []domain.Option{
				{ID: 1, Text: "la mujer", Correct: false},
				{ID: 2, Text: "el hombre", Correct: true},
			},
		},
	}
}
