package postgres

import (
	"context"
	"fmt"

	"fibra-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type courseRow struct {
	ID         int64  `bun:"id"`
	Title      string `bun:"title"`
	ImageSrc   string `bun:"image_src"`
	UnitsCount int    `bun:"units_count"`
}

type unitRow struct {
	ID          int64  `bun:"id"`
	CourseID    int64  `bun:"course_id"`
	Title       string `bun:"title"`
	Description string `bun:"description"`
	Order       int    `bun:"order"`
}

type lessonRow struct {
	ID             int64  `bun:"id"`
	UnitID         int64  `bun:"unit_id"`
	Title          string `bun:"title"`
	Order          int    `bun:"order"`
	QuestionsCount int    `bun:"questions_count"`
}

type examRow struct {
	ID             int64  `bun:"id"`
	Title          string `bun:"title"`
	Description    string `bun:"description"`
	Order          int    `bun:"order"`
	LessonsCount   int    `bun:"lessons_count"`
	QuestionsCount int    `bun:"questions_count"`
}

// Catalog lists exams, courses and units with their lesson and question counts.
type Catalog struct {
	db bun.IDB
}

func NewCatalog(db bun.IDB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) ListExams(ctx context.Context) ([]domain.Exam, error) {
	var rows []examRow
	err := c.db.NewSelect().
		TableExpr("exams AS e").
		ColumnExpr(`e.id, e.title, e.description, e."order"`).
		ColumnExpr("COUNT(DISTINCT el.lesson_id) AS lessons_count").
		ColumnExpr("COUNT(DISTINCT c.id) AS questions_count").
		Join("LEFT JOIN exam_lessons AS el ON el.exam_id = e.id").
		Join("LEFT JOIN challenges AS c ON c.lesson_id = el.lesson_id").
		GroupExpr("e.id").
		OrderExpr(`e."order", e.id`).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	exams := make([]domain.Exam, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, domain.Exam{
			ID:             r.ID,
			Title:          r.Title,
			Description:    r.Description,
			Order:          r.Order,
			LessonsCount:   r.LessonsCount,
			QuestionsCount: r.QuestionsCount,
		})
	}
	return exams, nil
}

func (c *Catalog) ListCourses(ctx context.Context) ([]domain.Course, error) {
	var rows []courseRow
	err := c.db.NewSelect().
		TableExpr("courses AS co").
		ColumnExpr("co.id, co.title, co.image_src").
		ColumnExpr("COUNT(u.id) AS units_count").
		Join("LEFT JOIN units AS u ON u.course_id = co.id").
		GroupExpr("co.id").
		OrderExpr("co.id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	courses := make([]domain.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, domain.Course{
			ID:         r.ID,
			Title:      r.Title,
			ImageSrc:   r.ImageSrc,
			UnitsCount: r.UnitsCount,
		})
	}
	return courses, nil
}

// ListUnits returns the course's units in order, each with its ordered lessons.
func (c *Catalog) ListUnits(ctx context.Context, courseID int64) ([]domain.Unit, error) {
	exists, err := c.db.NewSelect().
		TableExpr("courses AS co").
		Where("co.id = ?", courseID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check course %d: %w", courseID, err)
	}
	if !exists {
		return nil, domain.ErrCourseNotFound
	}

	var units []unitRow
	err = c.db.NewSelect().
		TableExpr("units AS u").
		ColumnExpr(`u.id, u.course_id, u.title, u.description, u."order"`).
		Where("u.course_id = ?", courseID).
		OrderExpr(`u."order", u.id`).
		Scan(ctx, &units)
	if err != nil {
		return nil, fmt.Errorf("list units of course %d: %w", courseID, err)
	}

	var lessons []lessonRow
	err = c.db.NewSelect().
		TableExpr("lessons AS l").
		ColumnExpr(`l.id, l.unit_id, l.title, l."order"`).
		ColumnExpr("COUNT(c.id) AS questions_count").
		Join("JOIN units AS u ON u.id = l.unit_id").
		Join("LEFT JOIN challenges AS c ON c.lesson_id = l.id").
		Where("u.course_id = ?", courseID).
		GroupExpr("l.id").
		OrderExpr(`l."order", l.id`).
		Scan(ctx, &lessons)
	if err != nil {
		return nil, fmt.Errorf("list lessons of course %d: %w", courseID, err)
	}
	return assembleUnits(units, lessons), nil
}

// assembleUnits attaches lessons to their units, keeping both orders.
func assembleUnits(units []unitRow, lessons []lessonRow) []domain.Unit {
	out := make([]domain.Unit, 0, len(units))
	index := make(map[int64]int, len(units))
	for _, u := range units {
		index[u.ID] = len(out)
		out = append(out, domain.Unit{
			ID:          u.ID,
			CourseID:    u.CourseID,
			Title:       u.Title,
			Description: u.Description,
			Order:       u.Order,
			Lessons:     []domain.LessonSummary{},
		})
	}
	for _, l := range lessons {
		i, ok := index[l.UnitID]
		if !ok {
			continue
		}
		out[i].Lessons = append(out[i].Lessons, domain.LessonSummary{
			ID:             l.ID,
			Title:          l.Title,
			Order:          l.Order,
			QuestionsCount: l.QuestionsCount,
		})
	}
	return out
}
