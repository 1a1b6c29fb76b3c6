package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// NumberInput is a focused text field that only accepts digits.
type NumberInput struct {
	Model textinput.Model
}

// NewNumberInput creates a field holding at most digits characters.
func NewNumberInput(placeholder string, digits int) NumberInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = digits
	ti.Focus()
	return NumberInput{Model: ti}
}

func (t NumberInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update drops non-digit characters and forwards everything else.
func (t NumberInput) Update(msg tea.Msg) (NumberInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		if key := kmsg.String(); len(key) == 1 && (key[0] < '0' || key[0] > '9') {
			return t, nil
		}
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t NumberInput) View() string {
	return t.Model.View()
}

// Int parses the field.
func (t NumberInput) Int() (int, error) {
	return strconv.Atoi(t.Model.Value())
}
