package memory

import (
	"context"
	"sort"

	"fibra-quiz-service/internal/domain"
)

// Catalog serves a fixed set of exams, courses and units.
type Catalog struct {
	exams   []domain.Exam
	courses []domain.Course
	units   map[int64][]domain.Unit
}

func NewCatalog(exams []domain.Exam, courses []domain.Course, units []domain.Unit) *Catalog {
	sortedExams := append([]domain.Exam(nil), exams...)
	sort.SliceStable(sortedExams, func(i, j int) bool {
		if sortedExams[i].Order != sortedExams[j].Order {
			return sortedExams[i].Order < sortedExams[j].Order
		}
		return sortedExams[i].ID < sortedExams[j].ID
	})

	sortedCourses := append([]domain.Course(nil), courses...)
	sort.SliceStable(sortedCourses, func(i, j int) bool { return sortedCourses[i].ID < sortedCourses[j].ID })

	byCourse := make(map[int64][]domain.Unit)
	for _, u := range units {
		u.Lessons = append([]domain.LessonSummary(nil), u.Lessons...)
		sort.SliceStable(u.Lessons, func(i, j int) bool {
			if u.Lessons[i].Order != u.Lessons[j].Order {
				return u.Lessons[i].Order < u.Lessons[j].Order
			}
			return u.Lessons[i].ID < u.Lessons[j].ID
		})
		byCourse[u.CourseID] = append(byCourse[u.CourseID], u)
	}
	for id := range byCourse {
		list := byCourse[id]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Order != list[j].Order {
				return list[i].Order < list[j].Order
			}
			return list[i].ID < list[j].ID
		})
	}
	return &Catalog{exams: sortedExams, courses: sortedCourses, units: byCourse}
}

func (c *Catalog) ListExams(_ context.Context) ([]domain.Exam, error) {
	return append([]domain.Exam(nil), c.exams...), nil
}

func (c *Catalog) ListCourses(_ context.Context) ([]domain.Course, error) {
	return append([]domain.Course(nil), c.courses...), nil
}

// ListUnits returns the course's units in order, each with its ordered lessons.
func (c *Catalog) ListUnits(_ context.Context, courseID int64) ([]domain.Unit, error) {
	found := false
	for _, course := range c.courses {
		if course.ID == courseID {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrCourseNotFound
	}
	units := make([]domain.Unit, 0, len(c.units[courseID]))
	for _, u := range c.units[courseID] {
		u.Lessons = append([]domain.LessonSummary(nil), u.Lessons...)
		units = append(units, u)
	}
	return units, nil
}
