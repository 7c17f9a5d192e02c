package app

import (
	"time"

	"fibra-quiz-service/internal/domain"
)

// BuildResult turns a completed ledger into a persistable result.
// total is the number of questions in the attempt, not the ledger length; a partial
// ledger is rejected instead of being scored as a full attempt.
func BuildResult(userID string, subject domain.Subject, questions []domain.Question, answers []domain.LedgerEntry, now time.Time) (domain.Result, error) {
	if userID == "" {
		return domain.Result{}, domain.ErrUnauthorized
	}
	total := len(questions)
	if len(answers) != total {
		return domain.Result{}, domain.ErrIncompleteAttempt
	}

	score := 0
	for _, entry := range answers {
		if entry.Correct {
			score++
		}
	}

	snapshot := make([]domain.LedgerEntry, len(answers))
	copy(snapshot, answers)
	return domain.Result{
		UserID:    userID,
		Subject:   subject,
		Score:     score,
		Total:     total,
		Answers:   snapshot,
		CreatedAt: now,
	}, nil
}

// ReviewItem pairs a question with what the learner picked and what was correct.
type ReviewItem struct {
	Question      domain.Question `json:"question"`
	Selected      *domain.Option  `json:"selected,omitempty"`
	CorrectOption *domain.Option  `json:"correctOption,omitempty"`
	Correct       bool            `json:"correct"`
}

// Review is the results-screen breakdown of a stored result.
type Review struct {
	Result     domain.Result `json:"result"`
	Percentage int           `json:"percentage"`
	Wrong      int           `json:"wrong"`
	Items      []ReviewItem  `json:"items"`
}

// BuildReview joins a stored result with the subject's current questions. Questions
// without a ledger entry count as wrong.
func BuildReview(result domain.Result, questions []domain.Question) Review {
	byQuestion := make(map[int64]domain.LedgerEntry, len(result.Answers))
	for _, entry := range result.Answers {
		byQuestion[entry.QuestionID] = entry
	}

	items := make([]ReviewItem, 0, len(questions))
	for _, q := range questions {
		item := ReviewItem{Question: q}
		if opt, ok := q.CorrectOption(); ok {
			item.CorrectOption = &opt
		}
		if entry, ok := byQuestion[q.ID]; ok {
			item.Correct = entry.Correct
			if opt, ok := q.Option(entry.SelectedOptionID); ok {
				item.Selected = &opt
			}
		}
		items = append(items, item)
	}

	return Review{
		Result:     result,
		Percentage: result.Percentage(),
		Wrong:      result.Total - result.Score,
		Items:      items,
	}
}
