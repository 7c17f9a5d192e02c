package app

import (
	"testing"
	"time"

	"fibra-quiz-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestBuildResultScoresLedger(t *testing.T) {
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	answers := []domain.LedgerEntry{
		{QuestionID: 1, SelectedOptionID: right(1), Correct: true},
		{QuestionID: 2, SelectedOptionID: wrong(2), Correct: false},
		{QuestionID: 3, SelectedOptionID: right(3), Correct: true},
	}

	result, err := BuildResult("u1", testExam, questions(3), answers, now)
	require.NoError(t, err)
	require.Equal(t, 2, result.Score)
	require.Equal(t, 3, result.Total)
	require.Equal(t, answers, result.Answers)
	require.Equal(t, now, result.CreatedAt)
	require.Equal(t, 67, result.Percentage())

	answers[0].Correct = false
	require.True(t, result.Answers[0].Correct, "result must not alias the ledger")
}

func TestBuildResultRejectsPartialLedger(t *testing.T) {
	_, err := BuildResult("u1", testExam, questions(3), []domain.LedgerEntry{{QuestionID: 1}}, time.Now())
	require.ErrorIs(t, err, domain.ErrIncompleteAttempt)
}

func TestBuildResultRequiresUser(t *testing.T) {
	_, err := BuildResult("", testExam, questions(1), []domain.LedgerEntry{{QuestionID: 1}}, time.Now())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestBuildReviewComparesAnswers(t *testing.T) {
	qs := questions(3)
	result := domain.Result{
		UserID:  "u1",
		Subject: testExam,
		Score:   1,
		Total:   3,
		Answers: []domain.LedgerEntry{
			{QuestionID: 1, SelectedOptionID: right(1), Correct: true},
			{QuestionID: 2, SelectedOptionID: wrong(2), Correct: false},
		},
	}

	review := BuildReview(result, qs)
	require.Len(t, review.Items, 3)
	require.Equal(t, 2, review.Wrong)
	require.Equal(t, 33, review.Percentage)

	require.True(t, review.Items[0].Correct)
	require.Equal(t, right(1), review.Items[0].Selected.ID)

	require.False(t, review.Items[1].Correct)
	require.Equal(t, wrong(2), review.Items[1].Selected.ID)
	require.Equal(t, right(2), review.Items[1].CorrectOption.ID)

	// no ledger entry for question 3
	require.False(t, review.Items[2].Correct)
	require.Nil(t, review.Items[2].Selected)
}
