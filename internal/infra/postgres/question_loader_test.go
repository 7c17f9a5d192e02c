package postgres

import (
	"testing"

	"fibra-quiz-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAssembleQuestionsGroupsOptions(t *testing.T) {
	rows := []questionRow{
		{questionID: 7, order: 1, kind: "SELECT", prompt: "the man?", lessonTitle: "Nouns", optionID: ptr(int64(70)), optionText: ptr("el hombre"), correct: ptr(true), imageSrc: "/man.svg"},
		{questionID: 7, order: 1, kind: "SELECT", prompt: "the man?", lessonTitle: "Nouns", optionID: ptr(int64(71)), optionText: ptr("la mujer"), correct: ptr(false)},
		{questionID: 8, order: 2, kind: "LISTEN", prompt: "hear", audioSrc: "/robot.mp3", lessonTitle: "Nouns"},
		{questionID: 3, order: 1, kind: "ASSIST", prompt: "to eat", lessonTitle: "Verbs", optionID: ptr(int64(30)), optionText: ptr("comer"), correct: ptr(true)},
	}

	qs := assembleQuestions(rows)
	require.Len(t, qs, 3)
	require.Equal(t, []int64{7, 8, 3}, []int64{qs[0].ID, qs[1].ID, qs[2].ID})
	require.Len(t, qs[0].Options, 2)
	require.Equal(t, "/man.svg", qs[0].Options[0].ImageSrc)
	correct, ok := qs[0].CorrectOption()
	require.True(t, ok)
	require.Equal(t, int64(70), correct.ID)
	require.Empty(t, qs[1].Options)
	require.Equal(t, "/robot.mp3", qs[1].AudioSrc)
	require.Equal(t, domain.KindAssist, qs[2].Kind)
	require.Equal(t, "Verbs", qs[2].LessonTitle)
}

func TestAssembleQuestionsSkipsRepeatedChallenge(t *testing.T) {
	row := questionRow{questionID: 1, kind: "SELECT", optionID: ptr(int64(10)), optionText: ptr("a"), correct: ptr(true)}
	qs := assembleQuestions([]questionRow{row, row})
	require.Len(t, qs, 1)
	require.Len(t, qs[0].Options, 1)
}

func TestAssembleQuestionsEmpty(t *testing.T) {
	require.Empty(t, assembleQuestions(nil))
}

func TestAssembleUnitsKeepsOrder(t *testing.T) {
	units := []unitRow{
		{ID: 3, CourseID: 1, Title: "Unit 1", Order: 1},
		{ID: 4, CourseID: 1, Title: "Unit 2", Order: 2},
	}
	lessons := []lessonRow{
		{ID: 10, UnitID: 3, Title: "Nouns", Order: 1, QuestionsCount: 3},
		{ID: 12, UnitID: 4, Title: "Food", Order: 1, QuestionsCount: 0},
		{ID: 11, UnitID: 3, Title: "Verbs", Order: 2, QuestionsCount: 2},
		{ID: 99, UnitID: 7, Title: "Orphan", Order: 1},
	}

	out := assembleUnits(units, lessons)
	require.Len(t, out, 2)
	require.Equal(t, []domain.LessonSummary{
		{ID: 10, Title: "Nouns", Order: 1, QuestionsCount: 3},
		{ID: 11, Title: "Verbs", Order: 2, QuestionsCount: 2},
	}, out[0].Lessons)
	require.Equal(t, []domain.LessonSummary{{ID: 12, Title: "Food", Order: 1}}, out[1].Lessons)
}

func TestAssembleUnitsWithoutLessons(t *testing.T) {
	out := assembleUnits([]unitRow{{ID: 1, CourseID: 1, Title: "Empty"}}, nil)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Lessons)
	require.Empty(t, out[0].Lessons)
}
