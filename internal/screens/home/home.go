// Package home is the start screen of eysh test: what is about to be
// asked, the last local result, and a menu that fetches the questions.
package home

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/eysh-app/eysh/internal/router"
	"github.com/eysh-app/eysh/internal/screen"
	"github.com/eysh-app/eysh/internal/screens/testsession"
	"github.com/eysh-app/eysh/internal/store"
	"github.com/eysh-app/eysh/internal/testrun"
	"github.com/eysh-app/eysh/internal/ui/components"
	"github.com/eysh-app/eysh/internal/ui/layout"
	"github.com/eysh-app/eysh/internal/ui/theme"
)

// Loader fetches the questions and starts a run.
type Loader func(ctx context.Context) (*testrun.Run, error)

// Options describe the test about to be taken.
type Options struct {
	Ctx      context.Context
	Subject  string
	Count    int
	LoggedIn bool

	// Last is the most recent local result, if any.
	Last *store.HistoryRecord

	Load     Loader
	OnFinish testsession.FinishFunc
}

type loadedMsg struct {
	run *testrun.Run
	err error
}

// Screen is the start screen.
type Screen struct {
	opts    Options
	menu    components.Menu
	spin    spinner.Model
	loading bool
	err     error
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
)

// New creates the start screen.
func New(opts Options) *Screen {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	s := &Screen{opts: opts, spin: spinner.New(spinner.WithSpinner(spinner.Dot))}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Тест эхлэх", Key: "s", Action: s.start},
		{Label: "Гарах", Key: "q", Action: func() tea.Cmd { return tea.Quit }},
	})
	return s
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Нүүр" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Сонгох"},
		{Key: "Enter", Description: "Батлах"},
		{Key: "s", Description: "Эхлэх"},
		{Key: "q", Description: "Гарах"},
	}
}

func (s *Screen) start() tea.Cmd {
	if s.loading || s.opts.Load == nil {
		return nil
	}
	s.loading = true
	s.err = nil
	ctx, load := s.opts.Ctx, s.opts.Load
	return tea.Batch(s.spin.Tick, func() tea.Msg {
		run, err := load(ctx)
		return loadedMsg{run: run, err: err}
	})
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loading = false
		if msg.err != nil {
			s.err = msg.err
			return s, nil
		}
		return s, router.Replace(testsession.New(msg.run, s.opts.OnFinish))
	case spinner.TickMsg:
		if !s.loading {
			return s, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd
	}
	if s.loading {
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, height int) string {
	subject := s.opts.Subject
	if subject == "" {
		subject = "бүх хичээл"
	}
	login := theme.Correct.Render("нэвтэрсэн")
	if !s.opts.LoggedIn {
		login = theme.Flagged.Render("нэвтрээгүй · дүн зөвхөн энэ төхөөрөмжид хадгалагдана")
	}

	lines := []string{
		RenderBanner(width),
		"",
		theme.Body.Render(fmt.Sprintf("%d асуулт · %s", s.opts.Count, subject)),
		theme.Dim.Render(login),
	}
	if last := s.opts.Last; last != nil {
		lines = append(lines, theme.Dim.Render(fmt.Sprintf("Сүүлийн дүн: %s  ·  %s",
			theme.ScoreStyle(last.Score).Render(fmt.Sprintf("%.1f%%", last.Score)),
			last.TakenAt.Local().Format("2006-01-02"))))
	}
	lines = append(lines, "")

	switch {
	case s.loading:
		lines = append(lines, s.spin.View()+" Асуултуудыг татаж байна…")
	default:
		lines = append(lines, s.menu.View())
	}
	if s.err != nil {
		lines = append(lines, "", theme.Incorrect.Width(max(width-8, 20)).Render("Асуулт татаж чадсангүй: "+s.err.Error()))
	}

	body := lipgloss.NewStyle().Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body)
}
