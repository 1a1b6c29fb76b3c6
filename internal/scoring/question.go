// Package scoring turns a finished test (questions plus answers) into a
// Result: score, predicted level, per-topic and per-difficulty breakdowns,
// weak topics and timing extremes. Everything here is pure computation.
package scoring

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Difficulty is the ordinal difficulty of a question.
type Difficulty int

const (
	Easy   Difficulty = 1
	Medium Difficulty = 2
	Hard   Difficulty = 3
)

// difficultyLabels are the display labels of the three difficulty buckets.
var difficultyLabels = []string{
	Easy:   "Хялбар",
	Medium: "Дунд",
	Hard:   "Хэцүү",
}

// Label returns the display label, or "" for difficulties outside 1-3.
func (d Difficulty) Label() string {
	if d < Easy || d > Hard {
		return ""
	}
	return difficultyLabels[d]
}

// DifficultyLabels returns the bucket labels from easy to hard.
func DifficultyLabels() []string {
	return []string{Easy.Label(), Medium.Label(), Hard.Label()}
}

// TopicLabels maps backend topic keys to their display labels.
var TopicLabels = map[string]string{
	"algebra":      "Алгебр",
	"geometry":     "Геометр",
	"trigonometry": "Тригонометр",
	"calculus":     "Анализ",
	"probability":  "Магадлал",
	"sequences":    "Дараалал",
	"functions":    "Функц",
	"vectors":      "Вектор",
}

// DefaultTimeLimit is the per-question allowance when the backend sends none.
const DefaultTimeLimit = 60

// Question is a test question as served by GET /api/tests/questions.
type Question struct {
	ID            string     `json:"id"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic"`
	TopicLabel    string     `json:"topic_mn,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	Content       string     `json:"content"`
	Options       []string   `json:"options"`
	CorrectAnswer *int       `json:"correct_answer,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
	TimeLimit     int        `json:"time_limit,omitempty"`
}

// Label is the grouping key for per-topic statistics: the localized label
// if present, else the known label for the topic key, else the key itself.
// Labels are NFC-normalized so visually identical strings group together.
func (q Question) Label() string {
	label := q.TopicLabel
	if label == "" {
		label = TopicLabels[q.Topic]
	}
	if label == "" {
		label = q.Topic
	}
	return norm.NFC.String(strings.TrimSpace(label))
}

// IsCorrect reports whether option index selected is the correct one.
// A question without a known correct option never scores.
func (q Question) IsCorrect(selected int) bool {
	return q.CorrectAnswer != nil && *q.CorrectAnswer == selected
}

// TimeAllowance is the display-only time budget for the question.
func (q Question) TimeAllowance() time.Duration {
	limit := q.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	return time.Duration(limit) * time.Second
}
