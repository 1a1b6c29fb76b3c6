package scoring

import "math"

// Stat is a correct/total tally with its rounded percentage.
type Stat struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Time       int `json:"time"`
	Percentage int `json:"percentage"`
}

func (s *Stat) add(correct bool, timeSpent int) {
	s.Total++
	s.Time += timeSpent
	if correct {
		s.Correct++
	}
}

func (s *Stat) finish() {
	if s.Total == 0 {
		s.Percentage = 0
		return
	}
	s.Percentage = roundHalfUp(float64(s.Correct) / float64(s.Total) * 100)
}

// weak reports a correct ratio strictly below one half.
func (s Stat) weak() bool {
	return s.Total > 0 && float64(s.Correct)/float64(s.Total) < 0.5
}

// AverageTime is the mean seconds per answer, unrounded.
func (s Stat) AverageTime() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Time) / float64(s.Total)
}

// Result is the locally computed outcome of a test.
type Result struct {
	Score          float64         `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	CorrectCount   int             `json:"correct_count"`
	PredictedLevel int             `json:"predicted_level"`
	WeakTopics     []string        `json:"weak_topics"`
	Topics         map[string]Stat `json:"topics"`
	TopicOrder     []string        `json:"topic_order"`
	Difficulty     map[string]Stat `json:"difficulty"`
	AverageTime    int             `json:"average_time"`
	FastestTopic   string          `json:"fastest_topic,omitempty"`
	SlowestTopic   string          `json:"slowest_topic,omitempty"`
	Answers        []Answer        `json:"answers"`
}

// Score computes the Result for a test. Only the last answer per question
// counts; answers to questions not in the list are ignored. Unanswered
// questions still count toward the score denominator.
func Score(questions []Question, answers []Answer) Result {
	res := Result{
		TotalQuestions: len(questions),
		WeakTopics:     []string{},
		Topics:         map[string]Stat{},
		TopicOrder:     []string{},
		Difficulty:     map[string]Stat{},
		Answers:        []Answer{},
	}
	if len(questions) == 0 {
		res.PredictedLevel = PredictLevel(0)
		return res
	}

	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	for _, label := range DifficultyLabels() {
		res.Difficulty[label] = Stat{}
	}

	var totalTime int
	for _, a := range NewAnswerSheet(answers...).Answers() {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		a.Correct = q.IsCorrect(a.Selected)
		res.Answers = append(res.Answers, a)
		totalTime += a.TimeSpent
		if a.Correct {
			res.CorrectCount++
		}

		label := q.Label()
		st, seen := res.Topics[label]
		if !seen {
			res.TopicOrder = append(res.TopicOrder, label)
		}
		st.add(a.Correct, a.TimeSpent)
		res.Topics[label] = st

		if dl := q.Difficulty.Label(); dl != "" {
			ds := res.Difficulty[dl]
			ds.add(a.Correct, a.TimeSpent)
			res.Difficulty[dl] = ds
		}
	}

	res.Score = float64(res.CorrectCount) / float64(len(questions)) * 100
	res.PredictedLevel = PredictLevel(res.Score)
	if n := len(res.Answers); n > 0 {
		res.AverageTime = roundHalfUp(float64(totalTime) / float64(n))
	}

	var fastest, slowest float64
	for i, label := range res.TopicOrder {
		st := res.Topics[label]
		st.finish()
		res.Topics[label] = st

		if st.weak() {
			res.WeakTopics = append(res.WeakTopics, label)
		}

		avg := st.AverageTime()
		if i == 0 || avg < fastest {
			res.FastestTopic, fastest = label, avg
		}
		if i == 0 || avg > slowest {
			res.SlowestTopic, slowest = label, avg
		}
	}
	for label, st := range res.Difficulty {
		st.finish()
		res.Difficulty[label] = st
	}
	return res
}

// PredictLevel maps a percentage score to a level from 2 to 10. Each tier's
// lower bound is inclusive.
func PredictLevel(score float64) int {
	switch {
	case score >= 90:
		return 10
	case score >= 80:
		return 8
	case score >= 70:
		return 7
	case score >= 60:
		return 6
	case score >= 50:
		return 5
	case score >= 40:
		return 4
	case score >= 30:
		return 3
	default:
		return 2
	}
}

// Topic returns the statistics for a topic label.
func (r Result) Topic(label string) (Stat, bool) {
	st, ok := r.Topics[label]
	return st, ok
}

// SubmittedAnswer is one answer in the backend submission payload.
type SubmittedAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     int    `json:"answer"`
	TimeSpent  int    `json:"time_spent"`
}

// Submission is the body of POST /api/tests/submit.
type Submission struct {
	Answers []SubmittedAnswer `json:"answers"`
}

// Submission builds the backend payload from the scored answers.
func (r Result) Submission() Submission {
	out := Submission{Answers: make([]SubmittedAnswer, 0, len(r.Answers))}
	for _, a := range r.Answers {
		out.Answers = append(out.Answers, SubmittedAnswer{
			QuestionID: a.QuestionID,
			Answer:     a.Selected,
			TimeSpent:  a.TimeSpent,
		})
	}
	return out
}

// roundHalfUp rounds to the nearest integer with .5 going up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
