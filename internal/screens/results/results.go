// Package results shows a scored test: the breakdown, study tips, the
// answer review and whether the backend accepted the submission.
package results

import (
	"context"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/eysh-app/eysh/internal/advisor"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/screen"
	"github.com/eysh-app/eysh/internal/session"
	"github.com/eysh-app/eysh/internal/store"
	"github.com/eysh-app/eysh/internal/ui/layout"
)

// Finisher saves and submits the result.
type Finisher interface {
	Finish(ctx context.Context, id string, res scoring.Result) (*store.HistoryRecord, session.SyncResult, error)
}

// Advisor produces study tips.
type Advisor interface {
	Advise(ctx context.Context, res scoring.Result) (advisor.Advice, error)
}

// Deps are optional collaborators; nil ones are skipped.
type Deps struct {
	Ctx      context.Context
	Finisher Finisher
	Advisor  Advisor
}

type finishedMsg struct {
	record *store.HistoryRecord
	sync   session.SyncResult
	err    error
}

type adviceMsg struct {
	advice advisor.Advice
	err    error
}

// Screen is the results view.
type Screen struct {
	runID     string
	result    scoring.Result
	questions []scoring.Question
	deps      Deps

	spin     spinner.Model
	viewport viewport.Model
	review   bool

	saving   bool
	finished *finishedMsg
	advising bool
	advice   *adviceMsg
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
)

// New creates the screen for the run with id runID.
func New(runID string, questions []scoring.Question, result scoring.Result, deps Deps) *Screen {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}
	return &Screen{
		runID:     runID,
		result:    result,
		questions: questions,
		deps:      deps,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport:  viewport.New(),
		saving:    deps.Finisher != nil,
		advising:  deps.Advisor != nil,
	}
}

func (s *Screen) Init() tea.Cmd {
	var cmds []tea.Cmd
	if s.saving {
		cmds = append(cmds, s.finishCmd())
	}
	if s.advising {
		cmds = append(cmds, s.adviseCmd())
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(append(cmds, s.spin.Tick)...)
}

func (s *Screen) finishCmd() tea.Cmd {
	ctx, id, res, f := s.deps.Ctx, s.runID, s.result, s.deps.Finisher
	return func() tea.Msg {
		rec, sync, err := f.Finish(ctx, id, res)
		return finishedMsg{record: rec, sync: sync, err: err}
	}
}

func (s *Screen) adviseCmd() tea.Cmd {
	ctx, res, a := s.deps.Ctx, s.result, s.deps.Advisor
	return func() tea.Msg {
		advice, err := a.Advise(ctx, res)
		return adviceMsg{advice: advice, err: err}
	}
}

func (s *Screen) Title() string { return "Дүн" }

func (s *Screen) Status() string {
	if s.saving || s.advising {
		return s.spin.View()
	}
	return ""
}

func (s *Screen) KeyHints() []layout.KeyHint {
	review := "Хариулт харах"
	if s.review {
		review = "Дүн харах"
	}
	return []layout.KeyHint{
		{Key: "R", Description: review},
		{Key: "↑↓", Description: "Гүйлгэх"},
		{Key: "Q", Description: "Гарах"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case finishedMsg:
		s.saving = false
		s.finished = &msg
		return s, nil
	case adviceMsg:
		s.advising = false
		s.advice = &msg
		return s, nil
	case spinner.TickMsg:
		if !s.saving && !s.advising {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q":
			return s, tea.Quit
		case "r":
			s.review = !s.review
			s.viewport.GotoTop()
			return s, nil
		}
	}
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return s, cmd
}
