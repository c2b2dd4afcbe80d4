// Package tui is a terminal preview of a clipped grid: cells are painted
// with their scale color, outlined in braille, and can be hovered, listed
// and searched by grid id.
package tui

import (
	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gridheat/internal/colorscale"
	"gridheat/internal/geom"
	"gridheat/internal/grid"
)

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string

	// Data
	res    *grid.Result
	source string
	scale  *colorscale.Scale
	bbox   geom.BBox
	lo, hi float64

	// scale picker
	l list.Model

	// goto grid id
	gotoMode bool
	ti       textinput.Model

	showOutlines bool

	inspectPopup string

	// hover state; hoverIdx is -1 when no cell is under the pointer
	hovering    bool
	hoverIdx    int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// cell table
	showTable bool
	tbl       table.Model
}

// New builds a preview of res. source names where the boundary came from
// and is shown in the status line.
func New(res *grid.Result, scale *colorscale.Scale, source string) Model {
	if scale == nil {
		scale, _ = colorscale.Named("")
	}
	m := Model{
		helpVisible:  true,
		zoom:         1.0,
		res:          res,
		source:       source,
		scale:        scale,
		bbox:         res.Layout.BBox(),
		hoverIdx:     -1,
		showOutlines: true,
	}
	m.lo, m.hi = res.ValueRange()
	m.status = summary(res, source)

	m.l = newScaleList(scale.Name)

	m.ti = textinput.New()
	m.ti.Placeholder = "grid id, e.g. 20_75"
	m.ti.Prompt = "goto: "
	m.ti.CharLimit = 64

	m.tbl = newCellTable(res)
	return m
}

func (m Model) Init() tea.Cmd { return nil }
