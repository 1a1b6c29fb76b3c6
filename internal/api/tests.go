package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/wiretime"
)

// MaxQuestions is the most questions the backend serves per test.
const MaxQuestions = 50

// TestResult is the backend's authoritative result for a submission.
type TestResult struct {
	ID             string        `json:"id"`
	Score          float64       `json:"score"`
	TotalQuestions int           `json:"total_questions"`
	CorrectCount   int           `json:"correct_count"`
	PredictedLevel int           `json:"predicted_level"`
	WeakTopics     []string      `json:"weak_topics"`
	CompletedAt    wiretime.Time `json:"completed_at"`
}

// Questions fetches count random questions, optionally for one subject.
// Every call draws a fresh sample, so cached entries are never read.
func (c *Client) Questions(ctx context.Context, subject string, count int) ([]scoring.Question, error) {
	params := map[string]string{"count": strconv.Itoa(count)}
	if subject != "" {
		params["subject"] = subject
	}
	var qs []scoring.Question
	if err := c.getJSON(WithRefresh(ctx), "/api/tests/questions", params, &qs); err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].TimeLimit == 0 {
			qs[i].TimeLimit = scoring.DefaultTimeLimit
		}
	}
	return qs, nil
}

// Submit sends answers for server-side scoring.
func (c *Client) Submit(ctx context.Context, sub scoring.Submission) (*TestResult, error) {
	var res TestResult
	if err := c.send(ctx, http.MethodPost, "/api/tests/submit", sub, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// History lists the signed-in user's submitted tests.
func (c *Client) History(ctx context.Context) ([]TestResult, error) {
	var res []TestResult
	if err := c.getJSON(ctx, "/api/tests/history", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}
