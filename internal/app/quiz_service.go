package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fibra-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttemptRepository abstracts where live attempts are kept (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	Put(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
}

// QuestionRepository loads the ordered questions of an exam or lesson.
type QuestionRepository interface {
	LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error)
}

// ResultStore durably stores finished results.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.Result) (domain.Result, error)
	LatestResult(ctx context.Context, subject domain.Subject, userID string) (domain.Result, error)
}

// EventPublisher announces saved results to other services.
type EventPublisher interface {
	PublishResultSaved(ctx context.Context, result domain.Result) error
}

// Metrics receives quiz lifecycle signals.
type Metrics interface {
	AttemptStarted(mode FeedbackMode)
	AttemptFinished(mode FeedbackMode)
	ResultSaved(outcome string)
	DataAnomaly()
}

// QuizService contains the quiz and exam use cases.
type QuizService struct {
	attempts  AttemptRepository
	questions QuestionRepository
	results   ResultStore
	events    EventPublisher
	metrics   Metrics
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes a QuizService.
type Option func(*QuizService)

func WithEvents(p EventPublisher) Option { return func(s *QuizService) { s.events = p } }
func WithMetrics(m Metrics) Option       { return func(s *QuizService) { s.metrics = m } }
func WithLogger(l *zap.Logger) Option    { return func(s *QuizService) { s.log = l } }

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(s *QuizService) { s.now = now } }

func NewQuizService(attempts AttemptRepository, questions QuestionRepository, results ResultStore, opts ...Option) *QuizService {
	s := &QuizService{
		attempts:  attempts,
		questions: questions,
		results:   results,
		metrics:   nopMetrics{},
		log:       zap.NewNop(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the subject's questions and opens a fresh attempt.
func (s *QuizService) Start(ctx context.Context, subject domain.Subject, mode FeedbackMode) (AttemptView, error) {
	if !subject.Valid() {
		return AttemptView{}, domain.ErrSubjectNotFound
	}
	questions, err := s.questions.LoadQuestions(ctx, subject)
	if err != nil {
		return AttemptView{}, err
	}

	attempt := NewAttempt(s.newID(), subject, mode, questions, s.now())
	s.attempts.Put(attempt)
	s.metrics.AttemptStarted(attempt.Mode())
	s.log.Info("attempt started",
		zap.String("attempt", attempt.ID()),
		zap.Stringer("subject", subject),
		zap.String("mode", string(attempt.Mode())),
		zap.Int("questions", len(questions)),
	)
	if attempt.Finished() {
		s.metrics.AttemptFinished(attempt.Mode())
	}
	return attempt.View(), nil
}

// Select records the learner's pick for the current question.
func (s *QuizService) Select(_ context.Context, attemptID string, optionID int64) (AttemptView, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return AttemptView{}, domain.ErrAttemptNotFound
	}
	attempt.Select(optionID)
	return attempt.View(), nil
}

// Confirm evaluates or advances the attempt.
func (s *QuizService) Confirm(_ context.Context, attemptID string) (AttemptView, Transition, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return AttemptView{}, Transition{}, domain.ErrAttemptNotFound
	}

	t := attempt.Confirm()
	switch {
	case t.Anomaly:
		s.metrics.DataAnomaly()
		s.log.Warn("confirm ignored",
			zap.String("attempt", attemptID),
			zap.Int64("question", t.QuestionID),
			zap.Error(domain.ErrDataIntegrity),
		)
	case t.Kind == TransitionFinished:
		s.metrics.AttemptFinished(attempt.Mode())
	}
	return attempt.View(), t, nil
}

// View returns the current snapshot of an attempt.
func (s *QuizService) View(_ context.Context, attemptID string) (AttemptView, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return AttemptView{}, domain.ErrAttemptNotFound
	}
	return attempt.View(), nil
}

// Finalize builds and persists the result of a finished attempt. A failed save keeps
// the built result on the attempt so the caller can retry without replaying questions;
// once saved, further calls return the stored result without writing again.
// Attempts over an empty question list resolve to a zero result and are not persisted.
func (s *QuizService) Finalize(ctx context.Context, attemptID, userID string) (domain.Result, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Result{}, domain.ErrAttemptNotFound
	}
	if !attempt.Finished() {
		return domain.Result{}, domain.ErrAttemptInProgress
	}

	attempt.saveMu.Lock()
	defer attempt.saveMu.Unlock()

	if attempt.saved != nil {
		return *attempt.saved, nil
	}
	if len(attempt.questions) == 0 {
		return domain.Result{UserID: userID, Subject: attempt.Subject(), Answers: []domain.LedgerEntry{}}, nil
	}

	if attempt.pending == nil {
		result, err := BuildResult(userID, attempt.Subject(), attempt.questions, attempt.Answers(), s.now())
		if err != nil {
			s.metrics.ResultSaved("rejected")
			s.log.Warn("result not built", zap.String("attempt", attemptID), zap.Error(err))
			return domain.Result{}, err
		}
		attempt.pending = &result
	}

	stored, err := s.results.SaveResult(ctx, *attempt.pending)
	if err != nil {
		s.metrics.ResultSaved("failed")
		s.log.Error("save result failed", zap.String("attempt", attemptID), zap.Error(err))
		if errors.Is(err, domain.ErrPersistenceFailure) {
			return domain.Result{}, err
		}
		return domain.Result{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	attempt.saved = &stored
	s.metrics.ResultSaved("saved")
	s.log.Info("result saved",
		zap.String("attempt", attemptID),
		zap.Stringer("subject", stored.Subject),
		zap.Int("score", stored.Score),
		zap.Int("total", stored.Total),
	)

	if s.events != nil {
		if err := s.events.PublishResultSaved(ctx, stored); err != nil {
			s.log.Warn("publish result event failed", zap.Error(err))
		}
	}
	return stored, nil
}

// PendingResult returns the built but not yet stored result of an attempt, if any.
func (s *QuizService) PendingResult(attemptID string) (domain.Result, bool) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Result{}, false
	}
	attempt.saveMu.Lock()
	defer attempt.saveMu.Unlock()
	if attempt.pending == nil {
		return domain.Result{}, false
	}
	return *attempt.pending, true
}

// Abandon discards an attempt; nothing is persisted.
func (s *QuizService) Abandon(_ context.Context, attemptID string) {
	if _, ok := s.attempts.Get(attemptID); !ok {
		return
	}
	s.attempts.Delete(attemptID)
}

// LatestReview rebuilds the results screen from the user's most recent stored result.
func (s *QuizService) LatestReview(ctx context.Context, subject domain.Subject, userID string) (Review, error) {
	if userID == "" {
		return Review{}, domain.ErrUnauthorized
	}
	if !subject.Valid() {
		return Review{}, domain.ErrSubjectNotFound
	}
	result, err := s.results.LatestResult(ctx, subject, userID)
	if err != nil {
		return Review{}, err
	}
	questions, err := s.questions.LoadQuestions(ctx, subject)
	if err != nil {
		return Review{}, err
	}
	return BuildReview(result, questions), nil
}

type nopMetrics struct{}

func (nopMetrics) AttemptStarted(FeedbackMode)  {}
func (nopMetrics) AttemptFinished(FeedbackMode) {}
func (nopMetrics) ResultSaved(string)           {}
func (nopMetrics) DataAnomaly()                 {}
