package testsession

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/eysh-app/eysh/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	switch s.mode {
	case modeConfirmFinish:
		return s.renderConfirm(width, height, s.finishPrompt())
	case modeConfirmQuit:
		return s.renderConfirm(width, height, "Тестийг орхих уу? Хариултууд хадгалагдахгүй.")
	}

	inner := max(width-6, 20)
	q := s.run.Current()

	meta := fmt.Sprintf("Асуулт %d/%d  ·  %s", s.run.Index()+1, s.run.Len(), q.Label())
	if d := q.Difficulty.Label(); d != "" {
		meta += "  ·  " + d
	}
	if s.run.IsFlagged(s.run.Index()) {
		meta += "  " + theme.Flagged.Render("⚑")
	}

	parts := []string{
		theme.Dim.Render(meta),
		"",
		theme.Body.Bold(true).Width(inner).Render(q.Content),
		"",
		s.choices.View(inner),
		"",
		s.renderNavigator(inner),
	}
	if s.mode == modeJump {
		parts = append(parts, "", "Асуултын дугаар: "+s.jump.View())
	}
	if s.notice != "" {
		parts = append(parts, "", theme.Incorrect.Render(s.notice))
	}

	return lipgloss.NewStyle().Padding(1, 3).Render(strings.Join(parts, "\n"))
}

func (s *Screen) finishPrompt() string {
	msg := fmt.Sprintf("Тестийг дуусгах уу? %d/%d асуултад хариулсан.", s.run.Answered(), s.run.Len())
	if n := s.run.Flagged(); n > 0 {
		msg += fmt.Sprintf("\n%d асуулт тэмдэглэгдсэн байна.", n)
	}
	return msg
}

func (s *Screen) renderConfirm(width, height int, msg string) string {
	card := theme.Card.Render(msg + "\n\n" + theme.Hint.Render("Y тийм · N үгүй"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

// renderNavigator prints one cell per question: the current one bracketed,
// answered ones highlighted and flagged ones marked.
func (s *Screen) renderNavigator(width int) string {
	var cells []string
	for i := range s.run.Len() {
		label := strconv.Itoa(i + 1)
		style := theme.Dim
		switch {
		case s.run.IsFlagged(i):
			style = theme.Flagged
		case s.run.IsAnswered(i):
			style = theme.Correct
		}
		if i == s.run.Index() {
			label = "[" + label + "]"
			style = style.Underline(true)
		} else {
			label = " " + label + " "
		}
		cells = append(cells, style.Render(label))
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(cells, ""))
}

// formatClock renders d as mm:ss.
func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func itoa(n int) string { return strconv.Itoa(n) }
