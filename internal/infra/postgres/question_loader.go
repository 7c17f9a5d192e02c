package postgres

import (
	"context"
	"fmt"

	"fibra-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
)

// querier is the subset of *pgxpool.Pool the loader needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// QuestionLoader assembles ordered question sets from the content tables.
type QuestionLoader struct {
	pool querier
}

func NewQuestionLoader(pool querier) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

const (
	examExistsSQL   = `SELECT EXISTS (SELECT 1 FROM exams WHERE id = $1)`
	lessonExistsSQL = `SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`

	examQuestionsSQL = `
SELECT c.id, c."order", c.type, c.question, COALESCE(c.audio_src, ''), l.title,
       o.id, o.text, o.correct, COALESCE(o.image_src, ''), COALESCE(o.audio_src, '')
FROM exam_lessons el
JOIN lessons l ON l.id = el.lesson_id
JOIN challenges c ON c.lesson_id = l.id
LEFT JOIN challenge_options o ON o.challenge_id = c.id
WHERE el.exam_id = $1
ORDER BY el."order", el.id, c."order", c.id, o.id`

	lessonQuestionsSQL = `
SELECT c.id, c."order", c.type, c.question, COALESCE(c.audio_src, ''), l.title,
       o.id, o.text, o.correct, COALESCE(o.image_src, ''), COALESCE(o.audio_src, '')
FROM lessons l
JOIN challenges c ON c.lesson_id = l.id
LEFT JOIN challenge_options o ON o.challenge_id = c.id
WHERE l.id = $1
ORDER BY c."order", c.id, o.id`
)

// questionRow is one joined challenge/option row; option columns are nil
// for a challenge without options.
type questionRow struct {
	questionID  int64
	order       int
	kind        string
	prompt      string
	audioSrc    string
	lessonTitle string
	optionID    *int64
	optionText  *string
	correct     *bool
	imageSrc    string
	optionAudio string
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, subject domain.Subject) ([]domain.Question, error) {
	existsSQL, questionsSQL := examExistsSQL, examQuestionsSQL
	switch subject.Kind {
	case domain.SubjectExam:
	case domain.SubjectLesson:
		existsSQL, questionsSQL = lessonExistsSQL, lessonQuestionsSQL
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrSubjectNotFound, subject)
	}

	var exists bool
	if err := l.pool.QueryRow(ctx, existsSQL, subject.ID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check %s: %w", subject, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubjectNotFound, subject)
	}

	rows, err := l.pool.Query(ctx, questionsSQL, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions for %s: %w", subject, err)
	}
	defer rows.Close()

	var scanned []questionRow
	for rows.Next() {
		var r questionRow
		if err := rows.Scan(
			&r.questionID, &r.order, &r.kind, &r.prompt, &r.audioSrc, &r.lessonTitle,
			&r.optionID, &r.optionText, &r.correct, &r.imageSrc, &r.optionAudio,
		); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		scanned = append(scanned, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions for %s: %w", subject, err)
	}
	return assembleQuestions(scanned), nil
}

// assembleQuestions folds joined rows into questions, keeping row order.
// A challenge repeated through a second exam_lessons link is kept once.
func assembleQuestions(rows []questionRow) []domain.Question {
	questions := make([]domain.Question, 0)
	index := make(map[int64]int)
	seenOption := make(map[int64]bool)
	for _, r := range rows {
		i, ok := index[r.questionID]
		if !ok {
			i = len(questions)
			index[r.questionID] = i
			questions = append(questions, domain.Question{
				ID:          r.questionID,
				Order:       r.order,
				Prompt:      r.prompt,
				Kind:        domain.QuestionKind(r.kind),
				AudioSrc:    r.audioSrc,
				LessonTitle: r.lessonTitle,
			})
		}
		if r.optionID == nil || seenOption[*r.optionID] {
			continue
		}
		seenOption[*r.optionID] = true
		opt := domain.Option{
			ID:       *r.optionID,
			ImageSrc: r.imageSrc,
			AudioSrc: r.optionAudio,
		}
		if r.optionText != nil {
			opt.Text = *r.optionText
		}
		if r.correct != nil {
			opt.Correct = *r.correct
		}
		questions[i].Options = append(questions[i].Options, opt)
	}
	return questions
}
