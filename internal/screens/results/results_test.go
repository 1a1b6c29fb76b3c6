package results

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eysh-app/eysh/internal/advisor"
	"github.com/eysh-app/eysh/internal/roadmap"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/session"
	"github.com/eysh-app/eysh/internal/store"
)

type fakeFinisher struct {
	sync  session.SyncResult
	err   error
	calls int
}

func (f *fakeFinisher) Finish(_ context.Context, id string, _ scoring.Result) (*store.HistoryRecord, session.SyncResult, error) {
	f.calls++
	if f.err != nil {
		return nil, session.SyncResult{}, f.err
	}
	return &store.HistoryRecord{ID: id}, f.sync, nil
}

type fakeAdvisor struct{ advice advisor.Advice }

func (f fakeAdvisor) Advise(context.Context, scoring.Result) (advisor.Advice, error) {
	return f.advice, nil
}

func intp(v int) *int { return &v }

func fixture() ([]scoring.Question, scoring.Result) {
	qs := []scoring.Question{
		{ID: "q1", Topic: "algebra", Difficulty: 1, Content: "2x = 4", Options: []string{"1", "2"}, CorrectAnswer: intp(1), Explanation: "x = 2"},
		{ID: "q2", Topic: "geometry", Difficulty: 2, Content: "180?", Options: []string{"90", "180"}, CorrectAnswer: intp(1)},
		{ID: "q3", Topic: "algebra", Difficulty: 2, Content: "x² = 9", Options: []string{"3", "-3"}, CorrectAnswer: intp(0)},
	}
	res := scoring.Score(qs, []scoring.Answer{
		scoring.NewAnswer(qs[0], 0, 40),
		scoring.NewAnswer(qs[1], 1, 20),
	})
	return qs, res
}

// drain runs cmd and every command it batches, feeding results back into s.
func drain(t *testing.T, s *Screen, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, s, c)
		}
	case finishedMsg, adviceMsg:
		s.Update(msg)
	}
}

func TestResults_SavesSubmitsAndAdvises(t *testing.T) {
	qs, res := fixture()
	fin := &fakeFinisher{sync: session.SyncResult{Submitted: true, Roadmap: &roadmap.Roadmap{Weeks: make([]roadmap.WeekPlan, 8)}}}
	adv := fakeAdvisor{advice: advisor.Advice{Tips: []advisor.Tip{{Topic: "Алгебр", Tip: "Тэгшитгэл давт"}}, Generated: true}}

	s := New("run-1", qs, res, Deps{Finisher: fin, Advisor: adv})
	assert.NotEmpty(t, s.Status(), "spinner while working")

	drain(t, s, s.Init())
	require.Equal(t, 1, fin.calls)
	assert.False(t, s.saving)
	assert.False(t, s.advising)
	assert.Empty(t, s.Status())

	view := s.View(100, 60)
	assert.Contains(t, view, "33.3%")
	assert.Contains(t, view, "Алгебр")
	assert.Contains(t, view, "Тэгшитгэл давт")
	assert.Contains(t, view, "Сервер рүү илгээлээ")
	assert.Contains(t, view, "8 долоо хоногийн")
}

func TestResults_OfflineAndFailures(t *testing.T) {
	qs, res := fixture()

	s := New("run-2", qs, res, Deps{Finisher: &fakeFinisher{sync: session.SyncResult{Err: session.ErrNoBackend}}})
	drain(t, s, s.Init())
	assert.Contains(t, s.View(100, 60), "eysh login")

	s = New("run-3", qs, res, Deps{Finisher: &fakeFinisher{err: errors.New("disk full")}})
	drain(t, s, s.Init())
	assert.Contains(t, s.View(100, 60), "disk full")
}

func TestResults_NoDeps(t *testing.T) {
	qs, res := fixture()
	s := New("run-4", qs, res, Deps{})
	assert.Nil(t, s.Init())
	assert.NotContains(t, s.View(100, 60), "Түүхэнд")
}

func TestResults_ReviewToggle(t *testing.T) {
	qs, res := fixture()
	s := New("run-5", qs, res, Deps{})

	s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	require.True(t, s.review)
	view := s.View(100, 80)
	assert.Contains(t, view, "буруу")
	assert.Contains(t, view, "хариулаагүй")
	assert.Contains(t, view, "x = 2")

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}
