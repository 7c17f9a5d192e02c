package postgres

import (
	"context"
	"fmt"

	"fibra-quiz-service/internal/content"
	"fibra-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type courseModel struct {
	bun.BaseModel `bun:"table:courses"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Title         string `bun:"title"`
	ImageSrc      string `bun:"image_src"`
}

type unitModel struct {
	bun.BaseModel `bun:"table:units"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Title         string `bun:"title"`
	Description   string `bun:"description"`
	CourseID      int64  `bun:"course_id"`
	Order         int    `bun:"order"`
}

type lessonModel struct {
	bun.BaseModel `bun:"table:lessons"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Title         string `bun:"title"`
	UnitID        int64  `bun:"unit_id"`
	Order         int    `bun:"order"`
}

type challengeModel struct {
	bun.BaseModel `bun:"table:challenges"`
	ID            int64   `bun:"id,pk,autoincrement"`
	LessonID      int64   `bun:"lesson_id"`
	Type          string  `bun:"type"`
	Question      string  `bun:"question"`
	Order         int     `bun:"order"`
	AudioSrc      *string `bun:"audio_src"`
}

type optionModel struct {
	bun.BaseModel `bun:"table:challenge_options"`
	ID            int64   `bun:"id,pk,autoincrement"`
	ChallengeID   int64   `bun:"challenge_id"`
	Text          string  `bun:"text"`
	Correct       bool    `bun:"correct"`
	ImageSrc      *string `bun:"image_src"`
	AudioSrc      *string `bun:"audio_src"`
}

type examModel struct {
	bun.BaseModel `bun:"table:exams"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Title         string `bun:"title"`
	Description   string `bun:"description"`
	Order         int    `bun:"order"`
}

type examLessonModel struct {
	bun.BaseModel `bun:"table:exam_lessons"`
	ID            int64 `bun:"id,pk,autoincrement"`
	ExamID        int64 `bun:"exam_id"`
	LessonID      int64 `bun:"lesson_id"`
	Order         int   `bun:"order"`
}

// ImportStats counts inserted rows. Subjects lists every lesson and exam the
// import created, in insertion order.
type ImportStats struct {
	Courses    int
	Units      int
	Lessons    int
	Challenges int
	Options    int
	Exams      int
	Subjects   []domain.Subject
}

// Importer writes content documents in one transaction.
type Importer struct {
	db *bun.DB
}

func NewImporter(db *bun.DB) *Importer {
	return &Importer{db: db}
}

func (im *Importer) Import(ctx context.Context, c content.Content) (ImportStats, error) {
	if err := c.Validate(); err != nil {
		return ImportStats{}, err
	}
	var stats ImportStats
	err := im.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stats = ImportStats{}
		lessonIDs := make(map[string]int64)
		for _, course := range c.Courses {
			cm := courseModel{Title: course.Title, ImageSrc: course.ImageSrc}
			if err := insert(ctx, tx, &cm); err != nil {
				return fmt.Errorf("insert course %q: %w", course.Title, err)
			}
			stats.Courses++
			for ui, unit := range course.Units {
				um := unitModel{Title: unit.Title, Description: unit.Description, CourseID: cm.ID, Order: ui + 1}
				if err := insert(ctx, tx, &um); err != nil {
					return fmt.Errorf("insert unit %q: %w", unit.Title, err)
				}
				stats.Units++
				for li, lesson := range unit.Lessons {
					lm := lessonModel{Title: lesson.Title, UnitID: um.ID, Order: li + 1}
					if err := insert(ctx, tx, &lm); err != nil {
						return fmt.Errorf("insert lesson %q: %w", lesson.Title, err)
					}
					stats.Lessons++
					stats.Subjects = append(stats.Subjects, domain.Subject{Kind: domain.SubjectLesson, ID: lm.ID})
					if lesson.Key != "" {
						lessonIDs[lesson.Key] = lm.ID
					}
					for ci, ch := range lesson.Challenges {
						chm := challengeModel{
							LessonID: lm.ID,
							Type:     string(ch.Type),
							Question: ch.Question,
							Order:    ci + 1,
							AudioSrc: nullable(ch.AudioSrc),
						}
						if err := insert(ctx, tx, &chm); err != nil {
							return fmt.Errorf("insert challenge %q: %w", ch.Question, err)
						}
						stats.Challenges++
						for _, opt := range ch.Options {
							om := optionModel{
								ChallengeID: chm.ID,
								Text:        opt.Text,
								Correct:     opt.Correct,
								ImageSrc:    nullable(opt.ImageSrc),
								AudioSrc:    nullable(opt.AudioSrc),
							}
							if err := insert(ctx, tx, &om); err != nil {
								return fmt.Errorf("insert option %q: %w", opt.Text, err)
							}
							stats.Options++
						}
					}
				}
			}
		}

		for ei, exam := range c.Exams {
			em := examModel{Title: exam.Title, Description: exam.Description, Order: ei + 1}
			if err := insert(ctx, tx, &em); err != nil {
				return fmt.Errorf("insert exam %q: %w", exam.Title, err)
			}
			stats.Exams++
			stats.Subjects = append(stats.Subjects, domain.Subject{Kind: domain.SubjectExam, ID: em.ID})
			for li, key := range exam.Lessons {
				link := examLessonModel{ExamID: em.ID, LessonID: lessonIDs[key], Order: li + 1}
				if err := insert(ctx, tx, &link); err != nil {
					return fmt.Errorf("link exam %q to lesson %q: %w", exam.Title, key, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

func insert(ctx context.Context, tx bun.Tx, model interface{}) error {
	_, err := tx.NewInsert().Model(model).Returning("id").Exec(ctx)
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
