package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/eysh-app/eysh/internal/ui/theme"
)

// OptionLabels are the letters printed before answer options.
var OptionLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// MultiChoice is a cursor over answer options. Chosen is the option the
// learner picked, or -1. Picking does not lock the list; the learner may
// change their mind until they leave the question.
type MultiChoice struct {
	Options []string
	Cursor  int
	Chosen  int
}

// NewMultiChoice starts with the cursor on chosen, or on the first option
// when chosen is -1.
func NewMultiChoice(options []string, chosen int) MultiChoice {
	m := MultiChoice{Options: options, Chosen: chosen}
	if chosen >= 0 && chosen < len(options) {
		m.Cursor = chosen
	}
	return m
}

// Update moves the cursor with up/down (or k/j) and picks with enter,
// space, a letter a-e or a digit. picked is true when a choice was made.
func (m MultiChoice) Update(msg tea.Msg) (mc MultiChoice, picked bool) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, false
	}
	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, false
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
		return m, false
	case "enter", "space":
		m.Chosen = m.Cursor
		return m, true
	}
	if i, ok := optionIndex(key); ok && i < len(m.Options) {
		m.Cursor, m.Chosen = i, i
		return m, true
	}
	return m, false
}

// optionIndex maps "a".."e" and "1".."8" to an option index. Letters
// past e are left free for screen key bindings.
func optionIndex(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	switch {
	case c >= 'a' && c <= 'e':
		return int(c - 'a'), true
	case c >= '1' && c <= '8':
		return int(c - '1'), true
	}
	return 0, false
}

// View renders the options, one per line, wrapped to width.
func (m MultiChoice) View(width int) string {
	var b strings.Builder
	for i, opt := range m.Options {
		label := "?"
		if i < len(OptionLabels) {
			label = OptionLabels[i]
		}
		prefix := "  "
		if i == m.Cursor {
			prefix = "▸ "
		}
		mark := " "
		if i == m.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%s %s) %s", prefix, mark, label, opt)

		style := theme.Unselected
		switch {
		case i == m.Chosen:
			style = theme.Correct.Foreground(theme.Secondary)
		case i == m.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Width(max(width, 20)).Render(line))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Reveal renders the options after grading: the correct one in green, a
// wrong pick in red.
func Reveal(options []string, chosen int, correct *int) string {
	var b strings.Builder
	for i, opt := range options {
		label := OptionLabels[min(i, len(OptionLabels)-1)]
		line := fmt.Sprintf("  %s) %s", label, opt)
		switch {
		case correct != nil && i == *correct:
			line = theme.Correct.Render(line + "  ✓")
		case i == chosen:
			line = theme.Incorrect.Render(line + "  ✗")
		default:
			line = lipgloss.NewStyle().Foreground(theme.TextDim).Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
