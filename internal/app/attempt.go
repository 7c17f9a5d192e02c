package app

import (
	"sync"
	"time"

	"fibra-quiz-service/internal/domain"
)

// FeedbackMode selects how correctness is revealed while sequencing.
type FeedbackMode string

const (
	// ModePractice pauses after each evaluation; a second confirm advances.
	ModePractice FeedbackMode = "practice"
	// ModeExam advances on the evaluating confirm and withholds feedback until the end.
	ModeExam FeedbackMode = "exam"
)

// ParseFeedbackMode maps user input onto a FeedbackMode.
func ParseFeedbackMode(raw string) (FeedbackMode, bool) {
	switch FeedbackMode(raw) {
	case ModePractice, ModeExam:
		return FeedbackMode(raw), true
	}
	return "", false
}

// Status is the evaluation state of the current question.
type Status string

const (
	StatusNone    Status = "none"
	StatusCorrect Status = "correct"
	StatusWrong   Status = "wrong"
)

// TransitionKind describes what a Confirm call did.
type TransitionKind string

const (
	TransitionIgnored   TransitionKind = "ignored"
	TransitionEvaluated TransitionKind = "evaluated"
	TransitionAdvanced  TransitionKind = "advanced"
	TransitionFinished  TransitionKind = "finished"
)

// Transition reports the outcome of Confirm. Correct is only meaningful when the
// call evaluated an answer; Anomaly is set when the question had no single correct option.
type Transition struct {
	Kind       TransitionKind `json:"kind"`
	QuestionID int64          `json:"questionId,omitempty"`
	Evaluated  bool           `json:"-"`
	Correct    bool           `json:"correct"`
	Anomaly    bool           `json:"-"`
}

const assistTitle = "Select the correct meaning"

// Attempt is the state of one run through an ordered question list.
type Attempt struct {
	id        string
	subject   domain.Subject
	mode      FeedbackMode
	questions []domain.Question
	createdAt time.Time

	mu           sync.Mutex
	index        int
	selected     int64
	hasSelection bool
	status       Status
	ledger       Ledger

	// saveMu serializes finalization so a result is written at most once.
	saveMu  sync.Mutex
	pending *domain.Result
	saved   *domain.Result
}

// NewAttempt starts an attempt at the first question. An empty question list yields
// an attempt that is already finished.
func NewAttempt(id string, subject domain.Subject, mode FeedbackMode, questions []domain.Question, now time.Time) *Attempt {
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	if mode == "" {
		mode = ModePractice
	}
	return &Attempt{
		id:        id,
		subject:   subject,
		mode:      mode,
		questions: qs,
		createdAt: now,
		status:    StatusNone,
	}
}

func (a *Attempt) ID() string              { return a.id }
func (a *Attempt) Subject() domain.Subject { return a.subject }
func (a *Attempt) Mode() FeedbackMode      { return a.mode }
func (a *Attempt) CreatedAt() time.Time    { return a.createdAt }

// Questions returns a copy of the attempt's question list.
func (a *Attempt) Questions() []domain.Question {
	out := make([]domain.Question, len(a.questions))
	copy(out, a.questions)
	return out
}

// Finished reports whether the attempt reached its terminal state.
func (a *Attempt) Finished() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finishedLocked()
}

func (a *Attempt) finishedLocked() bool {
	return a.index >= len(a.questions)
}

// Select records the learner's current pick. It is a no-op once the attempt is
// finished, after the current question was evaluated, or for an option that does
// not belong to the current question.
func (a *Attempt) Select(optionID int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finishedLocked() || a.status != StatusNone {
		return false
	}
	if _, ok := a.questions[a.index].Option(optionID); !ok {
		return false
	}
	a.selected = optionID
	a.hasSelection = true
	return true
}

// Confirm evaluates the current selection or, in practice mode after feedback,
// advances to the next question.
func (a *Attempt) Confirm() Transition {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finishedLocked() || !a.hasSelection {
		return Transition{Kind: TransitionIgnored}
	}

	question := a.questions[a.index]
	if a.status != StatusNone {
		return a.advanceLocked(Transition{QuestionID: question.ID})
	}

	correctOption, ok := question.CorrectOption()
	if !ok {
		return Transition{Kind: TransitionIgnored, QuestionID: question.ID, Anomaly: true}
	}

	isCorrect := correctOption.ID == a.selected
	a.ledger.Append(domain.LedgerEntry{
		QuestionID:       question.ID,
		SelectedOptionID: a.selected,
		Correct:          isCorrect,
	})
	t := Transition{QuestionID: question.ID, Evaluated: true, Correct: isCorrect}

	if a.mode == ModeExam {
		return a.advanceLocked(t)
	}
	if isCorrect {
		a.status = StatusCorrect
	} else {
		a.status = StatusWrong
	}
	t.Kind = TransitionEvaluated
	return t
}

func (a *Attempt) advanceLocked(t Transition) Transition {
	a.index++
	a.status = StatusNone
	a.selected = 0
	a.hasSelection = false
	if a.finishedLocked() {
		t.Kind = TransitionFinished
	} else {
		t.Kind = TransitionAdvanced
	}
	return t
}

// Progress is the share of answered questions in percent.
func (a *Attempt) Progress() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progressLocked()
}

func (a *Attempt) progressLocked() float64 {
	if len(a.questions) == 0 {
		return 0
	}
	return float64(a.ledger.Len()) / float64(len(a.questions)) * 100
}

// Answers returns a snapshot of the ledger.
func (a *Attempt) Answers() []domain.LedgerEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.Snapshot()
}

// Score is the running correct count.
func (a *Attempt) Score() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger.CorrectCount()
}

// OptionView is an option as shown to the learner, without its correctness flag.
type OptionView struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	ImageSrc string `json:"imageSrc,omitempty"`
	AudioSrc string `json:"audioSrc,omitempty"`
}

// QuestionView is the current question as rendered by the client.
type QuestionView struct {
	ID          int64               `json:"id"`
	Order       int                 `json:"order"`
	Kind        domain.QuestionKind `json:"kind"`
	Title       string              `json:"title"`
	Prompt      string              `json:"prompt"`
	AudioSrc    string              `json:"audioSrc,omitempty"`
	LessonTitle string              `json:"lessonTitle,omitempty"`
	Options     []OptionView        `json:"options"`
}

// AttemptView is a read-only snapshot of an attempt for the presentation layer.
type AttemptView struct {
	AttemptID        string         `json:"attemptId"`
	Subject          domain.Subject `json:"subject"`
	Mode             FeedbackMode   `json:"mode"`
	Index            int            `json:"index"`
	Total            int            `json:"total"`
	Question         *QuestionView  `json:"question,omitempty"`
	SelectedOptionID int64          `json:"selectedOptionId,omitempty"`
	Status           Status         `json:"status"`
	Percentage       float64        `json:"percentage"`
	CanContinue      bool           `json:"canContinue"`
	Finished         bool           `json:"finished"`
}

// View snapshots the attempt.
func (a *Attempt) View() AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()

	view := AttemptView{
		AttemptID:   a.id,
		Subject:     a.subject,
		Mode:        a.mode,
		Index:       a.index,
		Total:       len(a.questions),
		Status:      a.status,
		Percentage:  a.progressLocked(),
		CanContinue: a.hasSelection,
		Finished:    a.finishedLocked(),
	}
	if view.Finished {
		view.Index = len(a.questions)
		view.CanContinue = false
		return view
	}
	if a.hasSelection {
		view.SelectedOptionID = a.selected
	}
	qv := questionView(a.questions[a.index])
	view.Question = &qv
	return view
}

func questionView(q domain.Question) QuestionView {
	title := q.Prompt
	if q.Kind == domain.KindAssist {
		title = assistTitle
	}
	options := make([]OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, OptionView{
			ID:       opt.ID,
			Text:     opt.Text,
			ImageSrc: opt.ImageSrc,
			AudioSrc: opt.AudioSrc,
		})
	}
	return QuestionView{
		ID:          q.ID,
		Order:       q.Order,
		Kind:        q.Kind,
		Title:       title,
		Prompt:      q.Prompt,
		AudioSrc:    q.AudioSrc,
		LessonTitle: q.LessonTitle,
		Options:     options,
	}
}
