package testsession

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eysh-app/eysh/internal/router"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/screen"
	"github.com/eysh-app/eysh/internal/testrun"
)

func intp(v int) *int { return &v }

func questions() []scoring.Question {
	return []scoring.Question{
		{ID: "q1", Topic: "algebra", Difficulty: 1, Content: "2x = 4 бол x = ?", Options: []string{"1", "2", "3", "4"}, CorrectAnswer: intp(1)},
		{ID: "q2", Topic: "geometry", Difficulty: 2, Content: "Гурвалжны өнцгийн нийлбэр?", Options: []string{"90", "180", "360"}, CorrectAnswer: intp(1)},
		{ID: "q3", Topic: "algebra", Difficulty: 3, Content: "x² = 9 бол x > 0 үед x = ?", Options: []string{"3", "-3"}, CorrectAnswer: intp(0)},
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func press(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

func special(code rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: code} }

type doneScreen struct{ result scoring.Result }

func (d *doneScreen) Init() tea.Cmd                           { return nil }
func (d *doneScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return d, nil }
func (d *doneScreen) View(int, int) string                    { return "done" }
func (d *doneScreen) Title() string                           { return "done" }

func newScreen(t *testing.T) (*Screen, *testrun.Run, *clock, *doneScreen) {
	t.Helper()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	run, err := testrun.New(questions(), testrun.WithClock(c.now))
	require.NoError(t, err)

	done := &doneScreen{}
	s := New(run, func(_ *testrun.Run, _ *scoring.AnswerSheet, res scoring.Result) screen.Screen {
		done.result = res
		return done
	})
	return s, run, c, done
}

func send(s *Screen, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, m := range msgs {
		_, cmd = s.Update(m)
	}
	return cmd
}

func TestScreen_PickThenMoveRecordsAnswer(t *testing.T) {
	s, run, c, _ := newScreen(t)

	send(s, press('b'))
	opt, ok := run.Selected()
	require.True(t, ok)
	assert.Equal(t, 1, opt)
	assert.Zero(t, run.Answered(), "answer is recorded only when leaving the question")

	c.t = c.t.Add(20 * time.Second)
	send(s, special(tea.KeyRight))
	assert.Equal(t, 1, run.Index())
	assert.Equal(t, 1, run.Answered())
	assert.True(t, run.IsAnswered(0))
	assert.Contains(t, s.Status(), "1/3 хариулсан")
}

func TestScreen_EnterPicksAndAdvances(t *testing.T) {
	s, run, _, _ := newScreen(t)

	send(s, special(tea.KeyDown), special(tea.KeyEnter))
	assert.Equal(t, 1, run.Index())
	assert.Equal(t, 1, run.Answered())

	send(s, special(tea.KeyLeft))
	assert.Equal(t, 0, run.Index())
	assert.Equal(t, 1, s.choices.Chosen, "returning shows the earlier pick")
}

func TestScreen_FlagMovesOn(t *testing.T) {
	s, run, _, _ := newScreen(t)

	send(s, press('f'))
	assert.True(t, run.IsFlagged(0))
	assert.Equal(t, 1, run.Index())
	assert.Contains(t, s.View(100, 30), "Гурвалжны")
}

func TestScreen_Jump(t *testing.T) {
	s, run, _, _ := newScreen(t)

	send(s, press('g'), press('3'), special(tea.KeyEnter))
	assert.Equal(t, 2, run.Index())
	assert.Equal(t, modeAnswering, s.mode)

	send(s, press('g'), press('9'), special(tea.KeyEnter))
	assert.Equal(t, 2, run.Index())
	assert.NotEmpty(t, s.notice)
}

func TestScreen_FinishFlow(t *testing.T) {
	s, run, _, done := newScreen(t)

	send(s, press('b'), special(tea.KeyRight), press('b'), special(tea.KeyRight), press('b'))
	send(s, special(tea.KeyEnter))
	require.Equal(t, modeConfirmFinish, s.mode, "enter on the last question asks to finish")
	assert.Contains(t, s.View(100, 30), "2/3 асуултад")

	send(s, press('n'))
	assert.Equal(t, modeAnswering, s.mode)

	send(s, press('s'))
	cmd := send(s, press('y'))
	require.NotNil(t, cmd)

	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Same(t, done, msg.Screen)
	assert.Equal(t, testrun.PhaseFinished, run.Phase())
	assert.Equal(t, 2, done.result.CorrectCount)
	assert.InDelta(t, 66.7, done.result.Score, 0.05)
}

func TestScreen_BackAsksBeforeQuitting(t *testing.T) {
	s, _, _, _ := newScreen(t)

	handled, _ := s.HandleBack()
	require.True(t, handled)
	assert.Equal(t, modeConfirmQuit, s.mode)
	assert.Contains(t, s.View(100, 30), "орхих")

	send(s, press('n'))
	assert.Equal(t, modeAnswering, s.mode)

	s.HandleBack()
	cmd := send(s, press('y'))
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestScreen_BackClosesJumpPrompt(t *testing.T) {
	s, _, _, _ := newScreen(t)
	send(s, press('g'))
	require.Equal(t, modeJump, s.mode)

	s.HandleBack()
	assert.Equal(t, modeAnswering, s.mode)
}

func TestScreen_StatusCountsDown(t *testing.T) {
	s, _, c, _ := newScreen(t)
	assert.True(t, strings.HasPrefix(s.Status(), "01:00"), s.Status())

	c.t = c.t.Add(15 * time.Second)
	assert.True(t, strings.HasPrefix(s.Status(), "00:45"), s.Status())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", formatClock(0))
	assert.Equal(t, "02:05", formatClock(125*time.Second))
}
