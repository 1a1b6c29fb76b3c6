package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/auth"
	"github.com/eysh-app/eysh/internal/config"
	"github.com/eysh-app/eysh/internal/output"
)

const scoreDoc = `{
  "questions": [
    {"id": "q1", "topic": "algebra", "difficulty": 1, "content": "1+1", "options": ["1", "2"], "correct_answer": 1},
    {"id": "q2", "topic": "algebra", "difficulty": 2, "content": "2+2", "options": ["4", "5"], "correct_answer": 0},
    {"id": "q3", "topic": "geometry", "difficulty": 3, "content": "sides of a square", "options": ["3", "4"], "correct_answer": 1}
  ],
  "answers": [
    {"question_id": "q1", "answer": 1, "time_spent": 30},
    {"question_id": "q2", "answer": 1, "time_spent": 50},
    {"question_id": "q3", "answer": 1, "time_spent": 40},
    {"question_id": "ghost", "answer": 0, "time_spent": 10}
  ]
}`

func TestScoreFile(t *testing.T) {
	res, err := scoreFile(strings.NewReader(scoreDoc))
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 2, res.CorrectCount)
	assert.InDelta(t, 66.67, res.Score, 0.01)
	assert.Equal(t, 6, res.PredictedLevel)
	assert.Empty(t, res.WeakTopics, "algebra is exactly half right")
}

func TestScoreFile_RecomputesCorrectness(t *testing.T) {
	doc := `{"questions":[{"id":"q1","topic":"algebra","difficulty":1,"options":["a","b"],"correct_answer":0}],
	         "answers":[{"question_id":"q1","answer":1,"time_spent":5,"is_correct":true}]}`
	res, err := scoreFile(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Zero(t, res.CorrectCount)
}

func TestScoreFile_Invalid(t *testing.T) {
	_, err := scoreFile(strings.NewReader("{"))
	require.Error(t, err)
	assert.Equal(t, output.ExitUsage, classify(err).ExitCode())
}

func TestPrintResult(t *testing.T) {
	res, err := scoreFile(strings.NewReader(scoreDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "66.7% (2/3)")
	assert.Contains(t, out, "6/10")
	assert.Contains(t, out, "Weak topics:")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "8 weeks")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"usage", output.ErrUsage("bad flag"), output.ExitUsage},
		{"not logged in", fmt.Errorf("load: %w", auth.ErrNotLoggedIn), output.ExitAuth},
		{"unauthorized", &api.Error{StatusCode: 401, Detail: "Could not validate credentials"}, output.ExitAuth},
		{"not found", &api.Error{StatusCode: 404}, output.ExitNotFound},
		{"server error", &api.Error{StatusCode: 500}, output.ExitAPI},
		{"transport", &url.Error{Op: "Get", URL: "http://localhost:1", Err: errors.New("connection refused")}, output.ExitNetwork},
		{"other", errors.New("boom"), output.ExitAPI},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.err).ExitCode())
		})
	}
}

func TestNewCache_Backends(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	cfg.Cache.Backend = config.CacheOff
	c, err := newCache(ctx, cfg)
	require.NoError(t, err)
	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	cfg.Cache.Backend = config.CacheFile
	cfg.Cache.Dir = t.TempDir()
	cfg.Cache.Session = "test"
	c, err = newCache(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()
	assert.DirExists(t, filepath.Join(cfg.Cache.Dir, "sessions", "test"))

	cfg.Cache.Backend = config.CacheMemory
	c, err = newCache(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short\nsecond line", 10))
	assert.Equal(t, "Гурвалжн…", excerpt("Гурвалжны талбай", 9))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0012", formatCost(0.0012))
	assert.Equal(t, "$1.50", formatCost(1.5))
}
