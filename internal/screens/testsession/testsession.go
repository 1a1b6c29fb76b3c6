// Package testsession is the screen on which a test is taken.
package testsession

import (
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/eysh-app/eysh/internal/router"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/screen"
	"github.com/eysh-app/eysh/internal/testrun"
	"github.com/eysh-app/eysh/internal/ui/components"
	"github.com/eysh-app/eysh/internal/ui/layout"
)

// FinishFunc builds the screen shown after the test is scored.
type FinishFunc func(run *testrun.Run, sheet *scoring.AnswerSheet, result scoring.Result) screen.Screen

type mode int

const (
	modeAnswering mode = iota
	modeJump
	modeConfirmFinish
	modeConfirmQuit
)

type tickMsg time.Time

// Screen drives a testrun.Run from the keyboard.
type Screen struct {
	run      *testrun.Run
	onFinish FinishFunc
	keys     keyMap

	choices components.MultiChoice
	jump    components.NumberInput
	mode    mode
	notice  string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
	_ screen.BackGuard       = (*Screen)(nil)
)

// New creates the screen. onFinish is called once, when the learner
// confirms they are done.
func New(run *testrun.Run, onFinish FinishFunc) *Screen {
	s := &Screen{run: run, onFinish: onFinish, keys: defaultKeys()}
	s.syncChoices()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (s *Screen) Title() string { return "Тест" }

// Status is the time left on the current question and the answered count.
func (s *Screen) Status() string {
	return formatClock(s.run.Remaining()) + "  " +
		itoa(s.run.Answered()) + "/" + itoa(s.run.Len()) + " хариулсан"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.mode {
	case modeJump:
		return []layout.KeyHint{{Key: "Enter", Description: "Очих"}, {Key: "Esc", Description: "Болих"}}
	case modeConfirmFinish, modeConfirmQuit:
		return hints(s.keys.Yes, s.keys.No)
	}
	return append([]layout.KeyHint{{Key: "A-E", Description: "Сонгох"}},
		hints(s.keys.Prev, s.keys.Next, s.keys.Flag, s.keys.Jump, s.keys.Finish)...)
}

// HandleBack closes prompts, and otherwise asks before abandoning the test.
func (s *Screen) HandleBack() (bool, tea.Cmd) {
	switch s.mode {
	case modeAnswering:
		s.mode = modeConfirmQuit
	default:
		s.mode = modeAnswering
	}
	return true, nil
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if s.run.Phase() == testrun.PhaseFinished {
			return s, nil
		}
		return s, tick()
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	if s.mode == modeJump {
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	s.notice = ""
	switch s.mode {
	case modeJump:
		return s.handleJumpKey(msg)
	case modeConfirmFinish:
		switch {
		case key.Matches(msg, s.keys.Yes):
			return s, s.finish()
		case key.Matches(msg, s.keys.No):
			s.mode = modeAnswering
		}
		return s, nil
	case modeConfirmQuit:
		switch {
		case key.Matches(msg, s.keys.Yes):
			return s, tea.Quit
		case key.Matches(msg, s.keys.No):
			s.mode = modeAnswering
		}
		return s, nil
	}

	switch {
	case key.Matches(msg, s.keys.Next):
		if !s.run.Next() {
			s.mode = modeConfirmFinish
		}
		s.syncChoices()
		return s, nil
	case key.Matches(msg, s.keys.Prev):
		s.run.Prev()
		s.syncChoices()
		return s, nil
	case key.Matches(msg, s.keys.Flag):
		s.run.Flag()
		s.syncChoices()
		return s, nil
	case key.Matches(msg, s.keys.Jump):
		s.mode = modeJump
		s.jump = components.NewNumberInput("дугаар", len(itoa(s.run.Len())))
		return s, s.jump.Init()
	case key.Matches(msg, s.keys.Finish):
		s.mode = modeConfirmFinish
		return s, nil
	}

	var picked bool
	s.choices, picked = s.choices.Update(msg)
	if picked {
		if err := s.run.Select(s.choices.Chosen); err != nil {
			s.notice = err.Error()
			return s, nil
		}
		// Enter confirms and moves on; letters only pick.
		if msg.String() == "enter" && !s.run.Next() {
			s.mode = modeConfirmFinish
		}
		s.syncChoices()
	}
	return s, nil
}

func (s *Screen) handleJumpKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if msg.String() != "enter" {
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}
	s.mode = modeAnswering
	n, err := s.jump.Int()
	if err != nil || s.run.Jump(n-1) != nil {
		s.notice = "Ийм дугаартай асуулт алга."
		return s, nil
	}
	s.syncChoices()
	return s, nil
}

// syncChoices rebuilds the option list for the question on screen.
func (s *Screen) syncChoices() {
	chosen := -1
	if opt, ok := s.run.Selected(); ok {
		chosen = opt
	}
	s.choices = components.NewMultiChoice(s.run.Current().Options, chosen)
}

func (s *Screen) finish() tea.Cmd {
	sheet, result := s.run.Finish()
	if s.onFinish == nil {
		return tea.Quit
	}
	return router.Replace(s.onFinish(s.run, sheet, result))
}
