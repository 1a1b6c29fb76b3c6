// Package screen defines what the router needs from a full-window view.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/eysh-app/eysh/internal/ui/layout"
)

// Screen is one full-window view.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put a short status in the header, such as
// a countdown.
type StatusProvider interface {
	Status() string
}

// BackGuard lets a screen handle esc itself instead of being popped.
type BackGuard interface {
	// HandleBack reports whether the screen consumed the key.
	HandleBack() (bool, tea.Cmd)
}
