package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/eysh-app/eysh/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Key, when set, activates the item
// directly from anywhere in the list.
type MenuItem struct {
	Label    string
	Key      string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list of actions. Moving past either end wraps.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu selects the first enabled item.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.Selected = m.step(1)
	return m
}

// step returns the next enabled index in direction dir, wrapping, or the
// current one when nothing else is enabled.
func (m Menu) step(dir int) int {
	n := len(m.Items)
	for i := 1; i <= n; i++ {
		j := ((m.Selected+dir*i)%n + n) % n
		if !m.Items[j].Disabled {
			return j
		}
	}
	return max(m.Selected, 0)
}

// Update moves between enabled items and runs an action on enter or on
// the item's own key.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}
	switch key := kmsg.String(); key {
	case "up", "k":
		m.Selected = m.step(-1)
	case "down", "j", "tab":
		m.Selected = m.step(1)
	case "enter":
		return m, m.activate(m.Selected)
	default:
		for i, item := range m.Items {
			if item.Key != "" && item.Key == key && !item.Disabled {
				m.Selected = i
				return m, m.activate(i)
			}
		}
	}
	return m, nil
}

func (m Menu) activate(i int) tea.Cmd {
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	if item := m.Items[i]; item.Action != nil && !item.Disabled {
		return item.Action()
	}
	return nil
}

func (m Menu) View() string {
	lines := make([]string, 0, len(m.Items))
	for i, item := range m.Items {
		hint := ""
		if item.Key != "" {
			hint = theme.Dim.Render("  [" + item.Key + "]")
		}
		switch {
		case item.Disabled:
			lines = append(lines, theme.Dim.Render("    "+item.Label))
		case i == m.Selected:
			lines = append(lines, theme.Selected.Render("  ▸ "+item.Label)+hint)
		default:
			lines = append(lines, theme.Unselected.Render("    "+item.Label)+hint)
		}
	}
	return strings.Join(lines, "\n")
}
