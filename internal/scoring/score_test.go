package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func question(id, topic string, d Difficulty) Question {
	return Question{ID: id, Topic: topic, Difficulty: d, Options: []string{"a", "b", "c", "d"}, CorrectAnswer: intp(1)}
}

func answer(id string, correct bool, secs int) Answer {
	sel := 0
	if correct {
		sel = 1
	}
	return Answer{QuestionID: id, Selected: sel, TimeSpent: secs}
}

func TestScore_TenQuestionsSevenCorrect(t *testing.T) {
	var qs []Question
	var as []Answer
	for i := range 10 {
		id := fmt.Sprintf("q%d", i)
		qs = append(qs, question(id, "algebra", Medium))
		as = append(as, answer(id, i < 7, 30))
	}

	res := Score(qs, as)
	assert.InDelta(t, 70.0, res.Score, 1e-9)
	assert.Equal(t, 7, res.PredictedLevel)
	assert.Equal(t, 7, res.CorrectCount)
	assert.Equal(t, 10, res.TotalQuestions)
	assert.Equal(t, 30, res.AverageTime)
}

func TestScore_UnansweredCountInDenominator(t *testing.T) {
	qs := []Question{question("a", "algebra", Easy), question("b", "algebra", Easy), question("c", "algebra", Easy), question("d", "algebra", Easy)}
	res := Score(qs, []Answer{answer("a", true, 10)})
	assert.InDelta(t, 25.0, res.Score, 1e-9)
	assert.Equal(t, 2, res.PredictedLevel)
}

func TestPredictLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{100, 10}, {90, 10}, {89.99, 8}, {80, 8}, {79.9, 7}, {70, 7},
		{60, 6}, {50, 5}, {40, 4}, {30, 3}, {29.99, 2}, {0, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PredictLevel(tt.score), "score %v", tt.score)
	}
}

func TestScore_ExactlyEighty(t *testing.T) {
	var qs []Question
	var as []Answer
	for i := range 5 {
		id := fmt.Sprintf("q%d", i)
		qs = append(qs, question(id, "geometry", Hard))
		as = append(as, answer(id, i < 4, 20))
	}
	res := Score(qs, as)
	assert.InDelta(t, 80.0, res.Score, 1e-9)
	assert.Equal(t, 8, res.PredictedLevel)
}

func TestScore_WeakTopics(t *testing.T) {
	qs := []Question{
		question("a1", "algebra", Easy), question("g1", "geometry", Easy),
		question("a2", "algebra", Medium), question("g2", "geometry", Medium),
		question("a3", "algebra", Hard), question("g3", "geometry", Hard),
		question("g4", "geometry", Hard), question("g5", "geometry", Hard),
	}
	as := []Answer{
		answer("a1", true, 10), answer("g1", true, 10),
		answer("a2", false, 10), answer("g2", true, 10),
		answer("a3", false, 10), answer("g3", true, 10),
		answer("g4", true, 10), answer("g5", false, 10),
	}
	res := Score(qs, as)

	assert.Equal(t, []string{"Алгебр"}, res.WeakTopics)
	algebra, ok := res.Topic("Алгебр")
	require.True(t, ok)
	assert.Equal(t, Stat{Correct: 1, Total: 3, Time: 30, Percentage: 33}, algebra)
	geometry, _ := res.Topic("Геометр")
	assert.Equal(t, 80, geometry.Percentage)
	assert.Equal(t, []string{"Алгебр", "Геометр"}, res.TopicOrder)
}

func TestScore_WeakTopicsInEncounterOrder(t *testing.T) {
	qs := []Question{question("v", "vectors", Easy), question("a", "algebra", Easy), question("f", "functions", Easy)}
	as := []Answer{answer("v", false, 1), answer("a", false, 1), answer("f", false, 1)}
	assert.Equal(t, []string{"Вектор", "Алгебр", "Функц"}, Score(qs, as).WeakTopics)
}

func TestScore_HalfCorrectIsNotWeak(t *testing.T) {
	qs := []Question{question("a", "algebra", Easy), question("b", "algebra", Easy)}
	res := Score(qs, []Answer{answer("a", true, 1), answer("b", false, 1)})
	assert.Empty(t, res.WeakTopics)
	st, _ := res.Topic("Алгебр")
	assert.Equal(t, 50, st.Percentage)
}

func TestScore_PercentageRoundsHalfUp(t *testing.T) {
	// 1 of 8 = 12.5% -> 13
	var qs []Question
	var as []Answer
	for i := range 8 {
		id := fmt.Sprintf("q%d", i)
		qs = append(qs, question(id, "calculus", Easy))
		as = append(as, answer(id, i == 0, 1))
	}
	st, _ := Score(qs, as).Topic("Анализ")
	assert.Equal(t, 13, st.Percentage)
}

func TestScore_DifficultyBuckets(t *testing.T) {
	qs := []Question{question("e", "algebra", Easy), question("m", "algebra", Medium), question("x", "algebra", 7)}
	res := Score(qs, []Answer{answer("e", true, 5), answer("m", false, 5), answer("x", true, 5)})

	require.Len(t, res.Difficulty, 3)
	assert.Equal(t, Stat{Correct: 1, Total: 1, Time: 5, Percentage: 100}, res.Difficulty["Хялбар"])
	assert.Equal(t, Stat{Correct: 0, Total: 1, Time: 5, Percentage: 0}, res.Difficulty["Дунд"])
	assert.Equal(t, Stat{}, res.Difficulty["Хэцүү"])
}

func TestScore_Timing(t *testing.T) {
	qs := []Question{
		question("a1", "algebra", Easy), question("a2", "algebra", Easy),
		question("g1", "geometry", Easy),
		question("p1", "probability", Easy),
	}
	as := []Answer{
		answer("a1", true, 10), answer("a2", true, 21),
		answer("g1", true, 40),
		answer("p1", true, 4),
	}
	res := Score(qs, as)
	assert.Equal(t, 19, res.AverageTime) // 75/4 = 18.75
	assert.Equal(t, "Магадлал", res.FastestTopic)
	assert.Equal(t, "Геометр", res.SlowestTopic)
}

func TestScore_TimingTiesKeepFirst(t *testing.T) {
	qs := []Question{question("g", "geometry", Easy), question("a", "algebra", Easy)}
	res := Score(qs, []Answer{answer("g", true, 30), answer("a", true, 30)})
	assert.Equal(t, "Геометр", res.FastestTopic)
	assert.Equal(t, "Геометр", res.SlowestTopic)
}

func TestScore_EmptyQuestions(t *testing.T) {
	res := Score(nil, []Answer{answer("ghost", true, 10)})
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Topics)
	assert.Empty(t, res.Difficulty)
	assert.Empty(t, res.WeakTopics)
	assert.Zero(t, res.AverageTime)
}

func TestScore_OrphanAnswerSkipped(t *testing.T) {
	qs := []Question{question("a", "algebra", Easy)}
	res := Score(qs, []Answer{answer("a", true, 10), answer("ghost", true, 90)})
	assert.InDelta(t, 100.0, res.Score, 1e-9)
	assert.Equal(t, 1, res.CorrectCount)
	assert.Equal(t, 10, res.AverageTime)
	assert.Len(t, res.Answers, 1)
	assert.Equal(t, []string{"Алгебр"}, res.TopicOrder)
}

func TestScore_LaterAnswerOverwrites(t *testing.T) {
	qs := []Question{question("a", "algebra", Easy), question("b", "algebra", Easy)}
	as := []Answer{answer("a", false, 10), answer("b", true, 10), answer("a", true, 15)}
	res := Score(qs, as)

	require.Len(t, res.Answers, 2)
	assert.Equal(t, "a", res.Answers[0].QuestionID)
	assert.True(t, res.Answers[0].Correct)
	assert.Equal(t, 2, res.CorrectCount)
	st, _ := res.Topic("Алгебр")
	assert.Equal(t, 2, st.Total)
}

func TestScore_IsPure(t *testing.T) {
	qs := []Question{question("a", "algebra", Easy), question("g", "geometry", Hard)}
	as := []Answer{answer("a", true, 10), answer("g", false, 20)}
	assert.Equal(t, Score(qs, as), Score(qs, as))
}

func TestScore_CorrectnessFromQuestion(t *testing.T) {
	q := question("a", "algebra", Easy)
	q.CorrectAnswer = nil
	res := Score([]Question{q}, []Answer{{QuestionID: "a", Selected: 0, Correct: true}})
	assert.Zero(t, res.CorrectCount)
}

func TestQuestionLabel(t *testing.T) {
	assert.Equal(t, "Алгебр", Question{Topic: "algebra"}.Label())
	assert.Equal(t, "Квадрат тэгшитгэл", Question{Topic: "quadratics", TopicLabel: " Квадрат тэгшитгэл "}.Label())
	assert.Equal(t, "logic", Question{Topic: "logic"}.Label())
	// Decomposed й (и + combining breve) normalizes to the precomposed form.
	assert.Equal(t, Question{TopicLabel: "Функц\u0438\u0306"}.Label(), Question{TopicLabel: "Функц\u0439"}.Label())
}

func TestSubmission(t *testing.T) {
	qs := []Question{question("a", "algebra", Easy)}
	res := Score(qs, []Answer{answer("a", true, 12)})
	assert.Equal(t, Submission{Answers: []SubmittedAnswer{{QuestionID: "a", Answer: 1, TimeSpent: 12}}}, res.Submission())
}

func TestAnswerSheet(t *testing.T) {
	var s AnswerSheet
	s.Record(Answer{QuestionID: "a", Selected: 1})
	s.Record(Answer{QuestionID: "b", Selected: 2})
	s.Record(Answer{QuestionID: "a", Selected: 3})

	assert.Equal(t, 2, s.Len())
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, got.Selected)
	assert.Equal(t, "a", s.Answers()[0].QuestionID)
	_, ok = s.Get("zzz")
	assert.False(t, ok)
}

func TestTimeAllowance(t *testing.T) {
	assert.Equal(t, "1m0s", Question{}.TimeAllowance().String())
	assert.Equal(t, "1m30s", Question{TimeLimit: 90}.TimeAllowance().String())
}
