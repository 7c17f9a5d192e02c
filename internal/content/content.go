// Package content describes course material as a YAML document: courses, units,
// lessons with their challenges, and exams built from lessons.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"fibra-quiz-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Content is the YAML document accepted by the importer.
type Content struct {
	Courses []CourseDoc `yaml:"courses"`
	Exams   []ExamDoc   `yaml:"exams"`
}

type CourseDoc struct {
	Title    string    `yaml:"title"`
	ImageSrc string    `yaml:"imageSrc"`
	Units    []UnitDoc `yaml:"units"`
}

type UnitDoc struct {
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Lessons     []LessonDoc `yaml:"lessons"`
}

// LessonDoc is a lesson; Key lets exams reference it.
type LessonDoc struct {
	Key        string         `yaml:"key"`
	Title      string         `yaml:"title"`
	Challenges []ChallengeDoc `yaml:"challenges"`
}

type ChallengeDoc struct {
	Type     domain.QuestionKind `yaml:"type"`
	Question string              `yaml:"question"`
	AudioSrc string              `yaml:"audioSrc"`
	Options  []OptionDoc         `yaml:"options"`
}

type OptionDoc struct {
	Text     string `yaml:"text"`
	Correct  bool   `yaml:"correct"`
	ImageSrc string `yaml:"imageSrc"`
	AudioSrc string `yaml:"audioSrc"`
}

// ExamDoc lists its lessons by key, in exam order.
type ExamDoc struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Lessons     []string `yaml:"lessons"`
}

// Parse decodes and validates a content document.
func Parse(r io.Reader) (Content, error) {
	var c Content
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Content{}, fmt.Errorf("decode content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Content{}, err
	}
	return c, nil
}

// Validate checks challenge kinds, the single-correct-option rule and exam lesson keys.
func (c Content) Validate() error {
	var errs []error
	keys := make(map[string]bool)
	for _, course := range c.Courses {
		if course.Title == "" {
			errs = append(errs, errors.New("course without title"))
		}
		for _, unit := range course.Units {
			for _, lesson := range unit.Lessons {
				if lesson.Key != "" {
					if keys[lesson.Key] {
						errs = append(errs, fmt.Errorf("duplicate lesson key %q", lesson.Key))
					}
					keys[lesson.Key] = true
				}
				for i, ch := range lesson.Challenges {
					where := fmt.Sprintf("lesson %q challenge %d", lesson.Title, i+1)
					switch ch.Type {
					case domain.KindSelect, domain.KindAssist, domain.KindListen:
					default:
						errs = append(errs, fmt.Errorf("%s: unknown type %q", where, ch.Type))
					}
					correct := 0
					for _, opt := range ch.Options {
						if opt.Correct {
							correct++
						}
					}
					if correct != 1 {
						errs = append(errs, fmt.Errorf("%s: %d correct options: %w", where, correct, domain.ErrDataIntegrity))
					}
				}
			}
		}
	}
	for _, exam := range c.Exams {
		if len(exam.Lessons) == 0 {
			errs = append(errs, fmt.Errorf("exam %q has no lessons", exam.Title))
		}
		for _, key := range exam.Lessons {
			if !keys[key] {
				errs = append(errs, fmt.Errorf("exam %q references unknown lesson %q", exam.Title, key))
			}
		}
	}
	return errors.Join(errs...)
}

// Static is content resolved into the shapes the quiz service reads, with ids
// assigned in document order the way a fresh database import assigns them.
type Static struct {
	Questions map[domain.Subject][]domain.Question
	Exams     []domain.Exam
	Courses   []domain.Course
	Units     []domain.Unit
}

// Resolve assigns ids and builds the per-subject question lists.
func (c Content) Resolve() Static {
	out := Static{Questions: make(map[domain.Subject][]domain.Question)}
	var courseID, unitID, lessonID, challengeID, optionID int64
	lessons := make(map[string]int64)
	for _, course := range c.Courses {
		courseID++
		out.Courses = append(out.Courses, domain.Course{
			ID:         courseID,
			Title:      course.Title,
			ImageSrc:   course.ImageSrc,
			UnitsCount: len(course.Units),
		})
		for ui, unit := range course.Units {
			unitID++
			entry := domain.Unit{
				ID:          unitID,
				CourseID:    courseID,
				Title:       unit.Title,
				Description: unit.Description,
				Order:       ui + 1,
				Lessons:     make([]domain.LessonSummary, 0, len(unit.Lessons)),
			}
			for li, lesson := range unit.Lessons {
				lessonID++
				entry.Lessons = append(entry.Lessons, domain.LessonSummary{
					ID:             lessonID,
					Title:          lesson.Title,
					Order:          li + 1,
					QuestionsCount: len(lesson.Challenges),
				})
				if lesson.Key != "" {
					lessons[lesson.Key] = lessonID
				}
				questions := make([]domain.Question, 0, len(lesson.Challenges))
				for i, ch := range lesson.Challenges {
					challengeID++
					q := domain.Question{
						ID:          challengeID,
						Order:       i + 1,
						Prompt:      ch.Question,
						Kind:        ch.Type,
						AudioSrc:    ch.AudioSrc,
						LessonTitle: lesson.Title,
					}
					for _, opt := range ch.Options {
						optionID++
						q.Options = append(q.Options, domain.Option{
							ID:       optionID,
							Text:     opt.Text,
							ImageSrc: opt.ImageSrc,
							AudioSrc: opt.AudioSrc,
							Correct:  opt.Correct,
						})
					}
					questions = append(questions, q)
				}
				out.Questions[domain.Subject{Kind: domain.SubjectLesson, ID: lessonID}] = questions
			}
			out.Units = append(out.Units, entry)
		}
	}

	for i, exam := range c.Exams {
		subject := domain.Subject{Kind: domain.SubjectExam, ID: int64(i + 1)}
		entry := domain.Exam{ID: subject.ID, Title: exam.Title, Description: exam.Description, Order: i + 1}
		distinct := make(map[int64]bool)
		var questions []domain.Question
		for _, key := range exam.Lessons {
			id, ok := lessons[key]
			if !ok {
				continue
			}
			distinct[id] = true
			questions = append(questions, out.Questions[domain.Subject{Kind: domain.SubjectLesson, ID: id}]...)
		}
		entry.LessonsCount = len(distinct)
		out.Questions[subject] = dedupe(questions)
		entry.QuestionsCount = len(out.Questions[subject])
		out.Exams = append(out.Exams, entry)
	}
	return out
}

func dedupe(questions []domain.Question) []domain.Question {
	seen := make(map[int64]bool, len(questions))
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}

//go:embed sample.yaml
var sampleYAML []byte

// Sample returns the bundled starter course used when no database is configured.
func Sample() Content {
	c, err := Parse(bytes.NewReader(sampleYAML))
	if err != nil {
		panic(fmt.Sprintf("bundled sample content: %v", err))
	}
	return c
}
