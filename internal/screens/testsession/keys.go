package testsession

import (
	"charm.land/bubbles/v2/key"

	"github.com/eysh-app/eysh/internal/ui/layout"
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Flag   key.Binding
	Jump   key.Binding
	Finish key.Binding
	Yes    key.Binding
	No     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("right", "n", "tab"), key.WithHelp("→", "Дараах")),
		Prev:   key.NewBinding(key.WithKeys("left", "p", "shift+tab"), key.WithHelp("←", "Өмнөх")),
		Flag:   key.NewBinding(key.WithKeys("f"), key.WithHelp("F", "Тэмдэглэх")),
		Jump:   key.NewBinding(key.WithKeys("g"), key.WithHelp("G", "Очих")),
		Finish: key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("S", "Дуусгах")),
		Yes:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("Y", "Тийм")),
		No:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("N", "Үгүй")),
	}
}

func hints(bindings ...key.Binding) []layout.KeyHint {
	out := make([]layout.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, layout.KeyHint{Key: h.Key, Description: h.Desc})
	}
	return out
}
