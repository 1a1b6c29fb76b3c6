package scoring

// Answer is the recorded response to one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Selected   int    `json:"answer"`
	TimeSpent  int    `json:"time_spent"`
	Correct    bool   `json:"is_correct"`
}

// NewAnswer records selected for q, deriving correctness.
func NewAnswer(q Question, selected, timeSpent int) Answer {
	return Answer{
		QuestionID: q.ID,
		Selected:   selected,
		TimeSpent:  timeSpent,
		Correct:    q.IsCorrect(selected),
	}
}

// AnswerSheet holds at most one answer per question. Recording a question a
// second time replaces the earlier answer in its original position. The zero
// value is ready to use.
type AnswerSheet struct {
	answers []Answer
	index   map[string]int
}

// NewAnswerSheet builds a sheet from answers, later entries overwriting
// earlier ones for the same question.
func NewAnswerSheet(answers ...Answer) *AnswerSheet {
	s := &AnswerSheet{}
	for _, a := range answers {
		s.Record(a)
	}
	return s
}

// Record stores a, replacing any previous answer for the same question.
func (s *AnswerSheet) Record(a Answer) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[a.QuestionID]; ok {
		s.answers[i] = a
		return
	}
	s.index[a.QuestionID] = len(s.answers)
	s.answers = append(s.answers, a)
}

// Get returns the answer recorded for questionID.
func (s *AnswerSheet) Get(questionID string) (Answer, bool) {
	i, ok := s.index[questionID]
	if !ok {
		return Answer{}, false
	}
	return s.answers[i], true
}

// Len is the number of answered questions.
func (s *AnswerSheet) Len() int {
	return len(s.answers)
}

// Answers returns the answers in first-recorded order.
func (s *AnswerSheet) Answers() []Answer {
	return append([]Answer(nil), s.answers...)
}
