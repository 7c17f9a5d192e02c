package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fibra-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type resultModel struct {
	bun.BaseModel `bun:"table:quiz_results,alias:r"`

	ID             int64                `bun:"id,pk,autoincrement"`
	UserID         string               `bun:"user_id,notnull"`
	SubjectKind    string               `bun:"subject_kind,notnull"`
	SubjectID      int64                `bun:"subject_id,notnull"`
	Score          int                  `bun:"score,notnull"`
	TotalQuestions int                  `bun:"total_questions,notnull"`
	Answers        []domain.LedgerEntry `bun:"answers,type:jsonb,notnull"`
	CreatedAt      time.Time            `bun:"created_at,notnull"`
}

func toResultModel(r domain.Result) resultModel {
	answers := r.Answers
	if answers == nil {
		answers = []domain.LedgerEntry{}
	}
	return resultModel{
		UserID:         r.UserID,
		SubjectKind:    string(r.Subject.Kind),
		SubjectID:      r.Subject.ID,
		Score:          r.Score,
		TotalQuestions: r.Total,
		Answers:        answers,
		CreatedAt:      r.CreatedAt,
	}
}

func (m resultModel) toDomain() domain.Result {
	return domain.Result{
		ID:        m.ID,
		UserID:    m.UserID,
		Subject:   domain.Subject{Kind: domain.SubjectKind(m.SubjectKind), ID: m.SubjectID},
		Score:     m.Score,
		Total:     m.TotalQuestions,
		Answers:   m.Answers,
		CreatedAt: m.CreatedAt,
	}
}

// ResultStore persists results in the quiz_results table.
type ResultStore struct {
	db  bun.IDB
	now func() time.Time
}

func NewResultStore(db bun.IDB) *ResultStore {
	return &ResultStore{db: db, now: time.Now}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.Result) (domain.Result, error) {
	if result.UserID == "" {
		return domain.Result{}, domain.ErrUnauthorized
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}
	m := toResultModel(result)
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return domain.Result{}, fmt.Errorf("%w: insert result: %v", domain.ErrPersistenceFailure, err)
	}
	return m.toDomain(), nil
}

func (s *ResultStore) LatestResult(ctx context.Context, subject domain.Subject, userID string) (domain.Result, error) {
	var m resultModel
	err := s.db.NewSelect().
		Model(&m).
		Where("r.subject_kind = ?", string(subject.Kind)).
		Where("r.subject_id = ?", subject.ID).
		Where("r.user_id = ?", userID).
		OrderExpr("r.created_at DESC, r.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Result{}, domain.ErrResultNotFound
		}
		return domain.Result{}, fmt.Errorf("latest result for %s: %w", subject, err)
	}
	return m.toDomain(), nil
}
