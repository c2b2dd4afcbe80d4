package tui

import (
	list "github.com/charmbracelet/bubbles/list"

	"gridheat/internal/colorscale"
)

type scaleItem struct {
	name string
	desc string
}

func (s scaleItem) Title() string       { return s.name }
func (s scaleItem) Description() string { return s.desc }
func (s scaleItem) FilterValue() string { return s.name }

func newScaleList(current string) list.Model {
	var items []list.Item
	sel := 0
	for i, name := range colorscale.Names() {
		sc, err := colorscale.Named(name)
		if err != nil {
			continue
		}
		desc := "continuous"
		if !sc.Continuous() {
			desc = "stepped"
		}
		if name == current {
			sel = i
		}
		items = append(items, scaleItem{name: name, desc: desc})
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	l := list.New(items, d, 0, 0)
	l.Title = "Scales"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Select(sel)
	return l
}

// applyScale switches the preview to the selected scale in the sidebar.
func (m *Model) applyScale() {
	it, ok := m.l.SelectedItem().(scaleItem)
	if !ok {
		return
	}
	sc, err := colorscale.Named(it.name)
	if err != nil {
		m.status = "scale error: " + err.Error()
		return
	}
	m.scale = sc
	m.status = "scale: " + sc.Name
}
