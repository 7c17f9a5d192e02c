package domain

import (
	"fmt"
	"time"
)

// QuestionKind is the presentation variant of a question.
type QuestionKind string

const (
	KindSelect QuestionKind = "SELECT"
	KindAssist QuestionKind = "ASSIST"
	KindListen QuestionKind = "LISTEN"
)

// SubjectKind tells whether an attempt runs over an exam or a single lesson.
type SubjectKind string

const (
	SubjectExam   SubjectKind = "exam"
	SubjectLesson SubjectKind = "lesson"
)

// Subject identifies the exam or lesson an attempt (and its result) belongs to.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   int64       `json:"id"`
}

func (s Subject) String() string {
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// Valid reports whether the subject names a known kind and a positive id.
func (s Subject) Valid() bool {
	return (s.Kind == SubjectExam || s.Kind == SubjectLesson) && s.ID > 0
}

// ParseSubjectKind maps user input onto a SubjectKind.
func ParseSubjectKind(raw string) (SubjectKind, bool) {
	switch SubjectKind(raw) {
	case SubjectExam, SubjectLesson:
		return SubjectKind(raw), true
	}
	return "", false
}

// Option represents a possible answer for a question.
type Option struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	ImageSrc string `json:"imageSrc,omitempty"`
	AudioSrc string `json:"audioSrc,omitempty"`
	Correct  bool   `json:"correct"`
}

// Question models a challenge with exactly one correct option.
type Question struct {
	ID          int64        `json:"id"`
	Order       int          `json:"order"`
	Prompt      string       `json:"prompt"`
	Kind        QuestionKind `json:"kind"`
	AudioSrc    string       `json:"audioSrc,omitempty"`
	LessonTitle string       `json:"lessonTitle,omitempty"`
	Options     []Option     `json:"options"`
}

// CorrectOption returns the single option flagged correct. ok is false when the
// question has no correct option or more than one.
func (q Question) CorrectOption() (Option, bool) {
	var (
		found Option
		count int
	)
	for _, opt := range q.Options {
		if opt.Correct {
			found = opt
			count++
		}
	}
	return found, count == 1
}

// Option looks up an option of the question by id.
func (q Question) Option(id int64) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// LedgerEntry is the recorded outcome of one answered question.
// SelectedOptionID is zero when nothing was selected.
type LedgerEntry struct {
	QuestionID       int64 `json:"challengeId"`
	SelectedOptionID int64 `json:"selectedOptionId,omitempty"`
	Correct          bool  `json:"correct"`
}

// Result is the persisted summary of one completed attempt.
type Result struct {
	ID        int64         `json:"id,omitempty"`
	UserID    string        `json:"userId"`
	Subject   Subject       `json:"subject"`
	Score     int           `json:"score"`
	Total     int           `json:"totalQuestions"`
	Answers   []LedgerEntry `json:"answers"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Percentage returns the rounded share of correct answers, 0 for empty results.
func (r Result) Percentage() int {
	if r.Total <= 0 {
		return 0
	}
	return (r.Score*100 + r.Total/2) / r.Total
}

// Exam is a catalog entry that aggregates several lessons.
type Exam struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Order          int    `json:"order"`
	LessonsCount   int    `json:"lessonsCount"`
	QuestionsCount int    `json:"questionsCount"`
}

// Course is a top-level catalog entry grouping units.
type Course struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ImageSrc   string `json:"imageSrc,omitempty"`
	UnitsCount int    `json:"unitsCount"`
}

// Unit is an ordered group of lessons within a course.
type Unit struct {
	ID          int64           `json:"id"`
	CourseID    int64           `json:"courseId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Order       int             `json:"order"`
	Lessons     []LessonSummary `json:"lessons"`
}

// LessonSummary is what a learner needs to pick a lesson: its id for the practice
// attempt and how many questions it holds.
type LessonSummary struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Order          int    `json:"order"`
	QuestionsCount int    `json:"questionsCount"`
}
